// Copyright 2024 Radfield Authors
// Licensed under the Apache License, Version 2.0

package format

import (
	"fmt"
	"strconv"
	"strings"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
)

// Feature flags for format capabilities
const (
	FeatureVoxelLayers uint32 = 1 << iota
	FeatureZstdCompression
	FeatureChecksum // Per-layer CRC32 checksum
	FeatureHistogram
	FeatureByteStreamSplit
)

// FeatureFlagName returns the string representation of a feature flag
func FeatureFlagName(f uint32) string {
	switch f {
	case FeatureVoxelLayers:
		return "VoxelLayers"
	case FeatureZstdCompression:
		return "ZstdCompression"
	case FeatureChecksum:
		return "Checksum"
	case FeatureHistogram:
		return "Histogram"
	case FeatureByteStreamSplit:
		return "ByteStreamSplit"
	default:
		return fmt.Sprintf("Unknown(%d)", f)
	}
}

// FeaturesToStrings converts feature flags to string slice
func FeaturesToStrings(features uint32) []string {
	var result []string
	for i := 0; i < 32; i++ {
		flag := uint32(1) << i
		if features&flag != 0 {
			result = append(result, FeatureFlagName(flag))
		}
	}
	return result
}

// VersionPolicy defines the capabilities of a specific format version
type VersionPolicy struct {
	MajorVersion uint8
	MinorVersion uint8
	FeatureFlags uint32
}

var (
	V1_0 = VersionPolicy{
		MajorVersion: 1,
		MinorVersion: 0,
		FeatureFlags: FeatureVoxelLayers | FeatureZstdCompression | FeatureChecksum | FeatureHistogram |
			FeatureByteStreamSplit,
	}

	// CurrentVersion is the version written by this implementation
	CurrentVersion = V1_0

	// MinReadableVersion is the oldest version that can be read
	MinReadableVersion = V1_0
)

// Encoded returns the version encoded as uint16: (Major << 8) | Minor
func (vp VersionPolicy) Encoded() uint16 {
	return (uint16(vp.MajorVersion) << 8) | uint16(vp.MinorVersion)
}

// String returns the version as "Major.Minor" string
func (vp VersionPolicy) String() string {
	return fmt.Sprintf("%d.%d", vp.MajorVersion, vp.MinorVersion)
}

// CanRead returns true if this version can read files created by 'other' version.
// Major versions must match and the reader's minor version must not be older.
func (vp VersionPolicy) CanRead(other VersionPolicy) bool {
	return vp.MajorVersion == other.MajorVersion &&
		vp.MinorVersion >= other.MinorVersion
}

// HasFeature returns true if this version supports the given feature
func (vp VersionPolicy) HasFeature(feature uint32) bool {
	return (vp.FeatureFlags & feature) != 0
}

// ParseVersion parses a version string like "1.0" into VersionPolicy
func ParseVersion(s string) (VersionPolicy, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return VersionPolicy{}, fmt.Errorf("invalid version format %q, expected Major.Minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil {
		return VersionPolicy{}, fmt.Errorf("invalid major version: %w", err)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return VersionPolicy{}, fmt.Errorf("invalid minor version: %w", err)
	}

	return VersionFromEncoded(uint16(major)<<8 | uint16(minor)), nil
}

// VersionFromEncoded creates VersionPolicy from encoded uint16
func VersionFromEncoded(encoded uint16) VersionPolicy {
	vp := VersionPolicy{
		MajorVersion: uint8(encoded >> 8),
		MinorVersion: uint8(encoded & 0xFF),
	}
	if encoded == V1_0.Encoded() {
		vp.FeatureFlags = V1_0.FeatureFlags
	}
	return vp
}

// ValidateVersion checks that a file of the encoded version is readable
func ValidateVersion(encoded uint16) error {
	vp := VersionFromEncoded(encoded)
	if !CurrentVersion.CanRead(vp) || !vp.CanRead(MinReadableVersion) {
		return lerrors.FormatVersionMismatch("", vp.String(),
			MinReadableVersion.String(), CurrentVersion.String())
	}
	return nil
}
