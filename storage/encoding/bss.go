package encoding

import (
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
)

// BSSZstdCodec applies Byte Stream Split before zstd: byte k of every word
// goes to stream k. Float voxel data compresses much better this way because
// exponent bytes end up next to each other.
type BSSZstdCodec struct {
	wordSize int
	zstd     *ZstdCodec
}

// NewBSSZstdCodec creates a codec splitting words of wordSize bytes
func NewBSSZstdCodec(wordSize, level int) *BSSZstdCodec {
	if wordSize < 1 {
		wordSize = 1
	}
	return &BSSZstdCodec{wordSize: wordSize, zstd: NewZstdCodec(level)}
}

func (c *BSSZstdCodec) Type() format.EncodingType {
	return format.EncodingBSSZstd
}

// WordSize returns the split width in bytes
func (c *BSSZstdCodec) WordSize() int { return c.wordSize }

func (c *BSSZstdCodec) Encode(raw []byte) ([]byte, error) {
	if len(raw)%c.wordSize != 0 {
		return nil, lerrors.New(lerrors.ErrEncodeFailed).
			Op("bss_encode").
			Context("input_size", len(raw)).
			Context("word_size", c.wordSize).
			Context("reason", "input is not a whole number of words").
			Build()
	}
	return c.zstd.Encode(splitStreams(raw, c.wordSize))
}

func (c *BSSZstdCodec) Decode(payload []byte, rawLen int) ([]byte, error) {
	if rawLen%c.wordSize != 0 {
		return nil, lerrors.DecodeFailed("bss", "raw length is not a whole number of words", nil)
	}
	split, err := c.zstd.Decode(payload, rawLen)
	if err != nil {
		return nil, err
	}
	return mergeStreams(split, c.wordSize), nil
}

// splitStreams 输出布局: [stream0][stream1]...[streamN-1]
func splitStreams(raw []byte, wordSize int) []byte {
	if wordSize == 1 {
		return raw
	}
	n := len(raw) / wordSize
	out := make([]byte, len(raw))
	for i := 0; i < n; i++ {
		word := raw[i*wordSize : (i+1)*wordSize]
		for k, b := range word {
			out[k*n+i] = b
		}
	}
	return out
}

func mergeStreams(split []byte, wordSize int) []byte {
	if wordSize == 1 {
		return split
	}
	n := len(split) / wordSize
	out := make([]byte, len(split))
	for k := 0; k < wordSize; k++ {
		stream := split[k*n : (k+1)*n]
		for i, b := range stream {
			out[i*wordSize+k] = b
		}
	}
	return out
}
