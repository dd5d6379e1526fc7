package errors

import "fmt"

// FormatInvalidMagic Magic号不匹配
func FormatInvalidMagic(path string, got, want uint32) error {
	return New(ErrInvalidMagic).
		Op("validate_header").
		Path(path).
		Context("got", fmt.Sprintf("0x%08X", got)).
		Context("want", fmt.Sprintf("0x%08X", want)).
		Severity(SeverityFatal).
		Build()
}

// FormatVersionMismatch 版本不匹配
func FormatVersionMismatch(path string, got, min, max string) error {
	return New(ErrVersionMismatch).
		Op("validate_version").
		Path(path).
		Context("version", got).
		Context("min_supported", min).
		Context("max_supported", max).
		Severity(SeverityFatal).
		Build()
}

// FormatCorrupted 文件损坏
func FormatCorrupted(path string, offset int64, reason string) error {
	return New(ErrCorruptedFile).
		Op("read_data").
		Path(path).
		Offset(offset).
		Context("reason", reason).
		Severity(SeverityFatal).
		Build()
}

// ChecksumMismatch reports a payload whose CRC32 does not match its header.
func ChecksumMismatch(op string, layer string, want, got uint32) error {
	return New(ErrChecksumMismatch).
		Op(op).
		Context("layer", layer).
		Context("want", fmt.Sprintf("0x%08X", want)).
		Context("got", fmt.Sprintf("0x%08X", got)).
		Severity(SeverityFatal).
		Build()
}

// UnknownType is returned when a type tag cannot be mapped to a supported
// element kind. There is no safe way to guess the layout of such data.
func UnknownType(op string, typeName string) error {
	return New(ErrUnknownType).
		Op(op).
		Context("type_name", typeName).
		Severity(SeverityFatal).
		Build()
}
