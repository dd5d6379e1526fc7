package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/wzqhbustb/radfield/storage/dtype"
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
)

// LayerHeader precedes every layer payload. The element type is stored as a
// textual tag and resolved through dtype.Classify on read.
type LayerHeader struct {
	Channel     string
	Name        string
	Unit        string
	TypeTag     string
	ElementSize uint32
	Bins        uint32 // Elements per voxel; 1 unless histogram
	NumVoxels   uint64
	Encoding    EncodingType
	RawLen      uint64 // Payload size after decoding
	PayloadLen  uint64 // Stored payload size
	Checksum    uint32 // CRC32 (IEEE) of the stored payload

	// DType is resolved from TypeTag; not serialized.
	DType dtype.DType
}

// NewLayerHeader builds a header for a layer of kind dt with the canonical tag
func NewLayerHeader(channel, name, unit string, dt dtype.DType, bins uint32, numVoxels uint64) (*LayerHeader, error) {
	tag, err := dtype.TypeName(dt)
	if err != nil {
		return nil, err
	}
	size, err := dtype.SizeOf(dt)
	if err != nil {
		return nil, err
	}
	h := &LayerHeader{
		Channel:     channel,
		Name:        name,
		Unit:        unit,
		TypeTag:     tag,
		ElementSize: uint32(size),
		Bins:        bins,
		NumVoxels:   numVoxels,
		DType:       dt,
	}
	h.RawLen = h.VoxelBytes() * numVoxels
	return h, nil
}

// VoxelBytes is the number of bytes one voxel occupies
func (h *LayerHeader) VoxelBytes() uint64 {
	return uint64(h.ElementSize) * uint64(h.Bins)
}

// SetPayload records encoding, size and checksum of the stored payload
func (h *LayerHeader) SetPayload(enc EncodingType, payload []byte) {
	h.Encoding = enc
	h.PayloadLen = uint64(len(payload))
	h.Checksum = crc32.ChecksumIEEE(payload)
}

// VerifyPayload checks the payload against the recorded checksum
func (h *LayerHeader) VerifyPayload(payload []byte) error {
	if uint64(len(payload)) != h.PayloadLen {
		return lerrors.FormatCorrupted("", -1,
			fmt.Sprintf("layer %s/%s: payload length %d, header says %d",
				h.Channel, h.Name, len(payload), h.PayloadLen))
	}
	if got := crc32.ChecksumIEEE(payload); got != h.Checksum {
		return lerrors.ChecksumMismatch("verify_layer", h.Channel+"/"+h.Name, h.Checksum, got)
	}
	return nil
}

// Validate resolves the type tag and checks the header for consistency
func (h *LayerHeader) Validate() error {
	if h.Name == "" || h.Channel == "" {
		return lerrors.ValidationFailed("validate_layer_header", "", "empty channel or layer name")
	}
	if len(h.Channel) > MaxNameLen || len(h.Name) > MaxNameLen || len(h.Unit) > MaxNameLen {
		return lerrors.ValidationFailed("validate_layer_header", "",
			fmt.Sprintf("name too long (max %d)", MaxNameLen))
	}
	if len(h.TypeTag) > MaxTypeTagLen {
		return lerrors.ValidationFailed("validate_layer_header", "",
			fmt.Sprintf("type tag too long: %d (max %d)", len(h.TypeTag), MaxTypeTagLen))
	}

	dt, err := dtype.Classify(h.TypeTag)
	if err != nil {
		return err
	}
	h.DType = dt

	size := dtype.MustSizeOf(dt)
	if h.ElementSize != uint32(size) {
		return lerrors.TypeMismatch("validate_layer_header", h.Channel+"/"+h.Name,
			fmt.Sprintf("%s (%d bytes)", dt, size),
			fmt.Sprintf("%d bytes", h.ElementSize))
	}

	if dt == dtype.Hist {
		if h.Bins == 0 || h.Bins > MaxHistogramBins {
			return lerrors.ValidationFailed("validate_layer_header", "",
				fmt.Sprintf("invalid histogram bins: %d", h.Bins))
		}
	} else if h.Bins != 1 {
		return lerrors.ValidationFailed("validate_layer_header", "",
			fmt.Sprintf("non-histogram layer with %d bins", h.Bins))
	}

	if !h.Encoding.Valid() {
		return lerrors.New(lerrors.ErrNotSupported).
			Op("validate_layer_header").
			Context("encoding", h.Encoding.String()).
			Build()
	}
	if h.RawLen != h.VoxelBytes()*h.NumVoxels {
		return lerrors.FormatCorrupted("", -1,
			fmt.Sprintf("layer %s/%s: raw length %d does not match %d voxels of %d bytes",
				h.Channel, h.Name, h.RawLen, h.NumVoxels, h.VoxelBytes()))
	}
	if h.PayloadLen > MaxPayloadSize || h.RawLen > MaxPayloadSize {
		return lerrors.ValidationFailed("validate_layer_header", "",
			fmt.Sprintf("payload too large: %d (max %d)", h.PayloadLen, int64(MaxPayloadSize)))
	}
	return nil
}

// WriteTo writes the header (without payload)
func (h *LayerHeader) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, NewFileError("write layer header", err)
	}

	// writes into a bytes.Buffer cannot fail
	buf := new(bytes.Buffer)
	for _, s := range []string{h.Channel, h.Name, h.Unit, h.TypeTag} {
		writeString(buf, s)
	}
	binary.Write(buf, ByteOrder, h.ElementSize)
	binary.Write(buf, ByteOrder, h.Bins)
	binary.Write(buf, ByteOrder, h.NumVoxels)
	binary.Write(buf, ByteOrder, uint8(h.Encoding))
	binary.Write(buf, ByteOrder, h.RawLen)
	binary.Write(buf, ByteOrder, h.PayloadLen)
	binary.Write(buf, ByteOrder, h.Checksum)

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), lerrors.IO("write_layer_header", "", err)
	}
	return int64(n), nil
}

// layerFixedSize is the encoded size of the numeric tail of a LayerHeader
const layerFixedSize = 4 + 4 + 8 + 1 + 8 + 8 + 4

// ReadFrom reads a header and resolves its type tag. An unresolvable tag
// fails with ErrUnknownType.
func (h *LayerHeader) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	fields := []struct {
		dst  *string
		name string
		max  int
	}{
		{&h.Channel, "channel", MaxNameLen},
		{&h.Name, "layer_name", MaxNameLen},
		{&h.Unit, "unit", MaxNameLen},
		{&h.TypeTag, "type_tag", MaxTypeTagLen},
	}
	for _, f := range fields {
		s, n, err := readString(r, f.name, f.max)
		total += n
		if err != nil {
			return total, err
		}
		*f.dst = s
	}

	buf := make([]byte, layerFixedSize)
	n, err := io.ReadFull(r, buf)
	total += int64(n)
	if err != nil {
		return total, lerrors.IO("read_layer_header", "", err)
	}

	h.ElementSize = ByteOrder.Uint32(buf[0:4])
	h.Bins = ByteOrder.Uint32(buf[4:8])
	h.NumVoxels = ByteOrder.Uint64(buf[8:16])
	h.Encoding = EncodingType(buf[16])
	h.RawLen = ByteOrder.Uint64(buf[17:25])
	h.PayloadLen = ByteOrder.Uint64(buf[25:33])
	h.Checksum = ByteOrder.Uint32(buf[33:37])

	if err := h.Validate(); err != nil {
		return total, err
	}
	return total, nil
}
