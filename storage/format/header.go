package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// FileHeader is the fixed-size header at the start of every field file
type FileHeader struct {
	Magic       uint32    // Magic number (0x52463344)
	Version     uint16    // Encoded format version
	Flags       uint16    // Feature flags
	FieldID     uuid.UUID // Identity of the stored field
	FieldDim    vec.Vec3  // Field extent in metres
	VoxelDim    vec.Vec3  // Voxel extent in metres
	VoxelCounts vec.UVec3 // Voxels per axis
	NumChannels uint32
	NumLayers   uint32 // Layers over all channels
	Reserved    [12]byte
}

// HeaderFlags defines feature flags
type HeaderFlags uint16

const (
	FlagCompressed HeaderFlags = 1 << iota // At least one layer is compressed
	FlagHistograms                         // At least one layer is a histogram
)

// FileHeaderSize is the encoded size of FileHeader
const FileHeaderSize = 4 + 2 + 2 + 16 + 12 + 12 + 12 + 4 + 4 + 12

// NewFileHeader creates a header for a field with the given geometry
func NewFileHeader(id uuid.UUID, fieldDim, voxelDim vec.Vec3, counts vec.UVec3, numChannels, numLayers int) *FileHeader {
	return &FileHeader{
		Magic:       MagicNumber,
		Version:     CurrentVersion.Encoded(),
		FieldID:     id,
		FieldDim:    fieldDim,
		VoxelDim:    voxelDim,
		VoxelCounts: counts,
		NumChannels: uint32(numChannels),
		NumLayers:   uint32(numLayers),
	}
}

// SetFlag sets a feature flag
func (h *FileHeader) SetFlag(flag HeaderFlags) {
	h.Flags |= uint16(flag)
}

// HasFlag checks if a flag is set
func (h *FileHeader) HasFlag(flag HeaderFlags) bool {
	return (h.Flags & uint16(flag)) != 0
}

// NumVoxels returns the number of voxels per layer
func (h *FileHeader) NumVoxels() uint64 {
	return h.VoxelCounts.Volume()
}

// Validate validates the header
func (h *FileHeader) Validate() error {
	if err := ValidateMagicNumber(h.Magic); err != nil {
		return err
	}
	if err := ValidateVersion(h.Version); err != nil {
		return err
	}
	if h.FieldDim.X <= 0 || h.FieldDim.Y <= 0 || h.FieldDim.Z <= 0 {
		return lerrors.ValidationFailed("validate_header", "",
			fmt.Sprintf("invalid field dimensions: %v", h.FieldDim))
	}
	if h.VoxelDim.X <= 0 || h.VoxelDim.Y <= 0 || h.VoxelDim.Z <= 0 {
		return lerrors.ValidationFailed("validate_header", "",
			fmt.Sprintf("invalid voxel dimensions: %v", h.VoxelDim))
	}
	if h.NumChannels > MaxChannels || h.NumLayers > MaxLayers {
		return lerrors.ValidationFailed("validate_header", "",
			fmt.Sprintf("too many channels or layers: %d/%d", h.NumChannels, h.NumLayers))
	}
	if h.VoxelCounts.X == 0 || h.VoxelCounts.Y == 0 || h.VoxelCounts.Z == 0 {
		return lerrors.ValidationFailed("validate_header", "",
			fmt.Sprintf("invalid voxel counts: %v", h.VoxelCounts))
	}
	return h.validateGrid()
}

// validateGrid checks the stored voxel counts against the geometry. A count
// may differ by one from ceil(field/voxel) to allow for float rounding.
func (h *FileHeader) validateGrid() error {
	if _, ok := h.VoxelCounts.CheckedVolume(); !ok {
		return lerrors.FormatCorrupted("", -1,
			fmt.Sprintf("voxel count overflow: %v", h.VoxelCounts))
	}
	axes := []struct {
		count        uint32
		field, voxel float32
	}{
		{h.VoxelCounts.X, h.FieldDim.X, h.VoxelDim.X},
		{h.VoxelCounts.Y, h.FieldDim.Y, h.VoxelDim.Y},
		{h.VoxelCounts.Z, h.FieldDim.Z, h.VoxelDim.Z},
	}
	for _, a := range axes {
		want := math.Ceil(float64(a.field) / float64(a.voxel))
		if !(math.Abs(float64(a.count)-want) <= 1) {
			return lerrors.FormatCorrupted("", -1,
				fmt.Sprintf("voxel counts %v do not match field %v / voxel %v",
					h.VoxelCounts, h.FieldDim, h.VoxelDim))
		}
	}
	return nil
}

// WriteTo writes the header to a writer
func (h *FileHeader) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, NewFileError("write header", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, FileHeaderSize))
	binary.Write(buf, ByteOrder, h) // fixed-size fields only, cannot fail

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), lerrors.IO("write_header", "", err)
	}
	return int64(n), nil
}

// ReadFrom reads and validates the header from a reader
func (h *FileHeader) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, FileHeaderSize)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		return int64(n), NewFileError("read header", lerrors.IO("read_header", "", err))
	}

	if err := binary.Read(bytes.NewReader(buf), ByteOrder, h); err != nil {
		return int64(n), NewFileError("decode header", err)
	}

	if err := h.Validate(); err != nil {
		return int64(n), err
	}
	return int64(n), nil
}

// WriteChannelNames writes the channel table that follows the file header.
// Channels are kept even when they hold no layers.
func WriteChannelNames(w io.Writer, names []string) (int64, error) {
	buf := new(bytes.Buffer)
	for _, name := range names {
		if name == "" || len(name) > MaxNameLen {
			return 0, lerrors.ValidationFailed("write_channel_table", "",
				fmt.Sprintf("invalid channel name %q", name))
		}
		writeString(buf, name) // bytes.Buffer, cannot fail
	}
	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), lerrors.IO("write_channel_table", "", err)
	}
	return int64(n), nil
}

// ReadChannelNames reads count channel names.
func ReadChannelNames(r io.Reader, count uint32) ([]string, int64, error) {
	var total int64
	names := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		name, n, err := readString(r, "channel_name", MaxNameLen)
		total += n
		if err != nil {
			return nil, total, err
		}
		names = append(names, name)
	}
	return names, total, nil
}
