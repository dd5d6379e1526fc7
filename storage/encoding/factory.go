package encoding

import (
	"github.com/wzqhbustb/radfield/storage/dtype"
	"github.com/wzqhbustb/radfield/storage/format"
)

// NewCodec returns the codec for enc and element kind dt. level only applies
// to compressing codecs.
func NewCodec(enc format.EncodingType, dt dtype.DType, level int) (Codec, error) {
	switch enc {
	case format.EncodingPlain:
		return PlainCodec{}, nil
	case format.EncodingZstd:
		return NewZstdCodec(level), nil
	case format.EncodingBSSZstd:
		word, err := dtype.ComponentSize(dt)
		if err != nil {
			return nil, err
		}
		return NewBSSZstdCodec(word, level), nil
	default:
		return nil, UnsupportedEncoding(enc)
	}
}
