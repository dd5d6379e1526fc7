package encoding

import (
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
)

// DecodeSizeMismatch reports a decoded payload of the wrong length.
func DecodeSizeMismatch(codec string, expected, actual int) error {
	return lerrors.DecodeSizeMismatch(codec, expected, actual)
}

// UnsupportedEncoding is returned for encodings without a codec.
func UnsupportedEncoding(enc format.EncodingType) error {
	return lerrors.New(lerrors.ErrNotSupported).
		Op("new_codec").
		Context("encoding", enc.String()).
		Build()
}
