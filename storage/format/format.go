// Package format implements the binary layout of radiation field files: a
// fixed file header followed by one layer header and payload per voxel layer.
package format

import (
	"encoding/binary"
	"fmt"
	"io"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
)

// Field file format constants
const (
	// MagicNumber identifies a field file (ASCII "RF3D")
	MagicNumber uint32 = 0x52463344

	// MaxNameLen bounds channel, layer and unit names
	MaxNameLen = 1024

	// MaxTypeTagLen bounds the stored type tag. Demangled template names can
	// be long but never approach this.
	MaxTypeTagLen = 512

	// MaxPayloadSize is the maximum size of a single layer payload (4 GB)
	MaxPayloadSize = 4 << 30

	// MaxChannels and MaxLayers bound the tables of a single file
	MaxChannels = 1 << 12
	MaxLayers   = 1 << 16

	// MaxHistogramBins bounds the bins per voxel of histogram layers
	MaxHistogramBins = 1 << 16
)

// EncodingType identifies how a layer payload is stored.
type EncodingType uint8

const (
	EncodingPlain   EncodingType = iota // Raw little-endian voxel data
	EncodingZstd                        // Zstd compressed
	EncodingBSSZstd                     // Byte stream split, then zstd
)

func (e EncodingType) String() string {
	switch e {
	case EncodingPlain:
		return "Plain"
	case EncodingZstd:
		return "Zstd"
	case EncodingBSSZstd:
		return "BSSZstd"
	default:
		return fmt.Sprintf("Unknown(%d)", e)
	}
}

// Valid reports whether e is a known encoding.
func (e EncodingType) Valid() bool {
	return e <= EncodingBSSZstd
}

// ByteOrder is the byte order used throughout field files
var ByteOrder = binary.LittleEndian

// FileError represents a field file format error
type FileError struct {
	Op  string
	Err error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("radfield format: %s: %v", e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// NewFileError creates a new file error
func NewFileError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &FileError{Op: op, Err: err}
}

// ValidateMagicNumber checks if the magic number is valid
func ValidateMagicNumber(magic uint32) error {
	if magic != MagicNumber {
		return lerrors.FormatInvalidMagic("", magic, MagicNumber)
	}
	return nil
}

// writeString writes a uint16 length-prefixed string.
func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, ByteOrder, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// readString reads a uint16 length-prefixed string of at most max bytes.
func readString(r io.Reader, field string, max int) (string, int64, error) {
	var n uint16
	if err := binary.Read(r, ByteOrder, &n); err != nil {
		return "", 0, lerrors.IO("read_"+field, "", err)
	}
	if int(n) > max {
		return "", 2, lerrors.New(lerrors.ErrCorruptedFile).
			Op("read_" + field).
			Context("length", n).
			Context("max_length", max).
			Severity(lerrors.SeverityFatal).
			Build()
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", 2, lerrors.IO("read_"+field, "", err)
	}
	return string(buf), 2 + int64(n), nil
}
