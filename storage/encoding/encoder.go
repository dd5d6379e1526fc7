// Package encoding compresses and restores voxel layer payloads.
package encoding

import (
	"github.com/wzqhbustb/radfield/storage/format"
)

// Codec encodes raw layer bytes for storage and restores them.
type Codec interface {
	// Type returns the encoding recorded in the layer header.
	Type() format.EncodingType

	// Encode returns the stored form of raw.
	Encode(raw []byte) ([]byte, error)

	// Decode restores rawLen bytes from a stored payload.
	Decode(payload []byte, rawLen int) ([]byte, error)
}

// PlainCodec stores payloads as-is.
type PlainCodec struct{}

func (PlainCodec) Type() format.EncodingType { return format.EncodingPlain }

func (PlainCodec) Encode(raw []byte) ([]byte, error) {
	return raw, nil
}

func (PlainCodec) Decode(payload []byte, rawLen int) ([]byte, error) {
	if len(payload) != rawLen {
		return nil, DecodeSizeMismatch("plain", rawLen, len(payload))
	}
	return payload, nil
}
