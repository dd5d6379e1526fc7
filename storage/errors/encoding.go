package errors

import "fmt"

// CompressionFailed 压缩失败
func CompressionFailed(codec string, inputSize int, err error) error {
	return New(ErrCompressionFailed).
		Op(fmt.Sprintf("%s_compress", codec)).
		Context("codec", codec).
		Context("input_size", inputSize).
		Wrap(err).
		Build()
}

// DecodeFailed 解码失败
func DecodeFailed(codec string, reason string, err error) error {
	return New(ErrDecodeFailed).
		Op(fmt.Sprintf("decode_%s", codec)).
		Context("codec", codec).
		Context("reason", reason).
		Wrap(err).
		Build()
}

// DecodeSizeMismatch 解码后大小不匹配
func DecodeSizeMismatch(codec string, expected, actual int) error {
	return New(ErrDecodeFailed).
		Op(fmt.Sprintf("decode_%s", codec)).
		Context("expected_bytes", expected).
		Context("actual_bytes", actual).
		Context("reason", "size mismatch after decoding").
		Build()
}
