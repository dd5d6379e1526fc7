// Package errors defines the structured error type shared by the radfield
// storage packages.
package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
)

// ErrorCode 错误分类码
type ErrorCode int

const (
	// 通用错误
	ErrUnknown ErrorCode = iota
	ErrInvalidArgument
	ErrNotSupported

	// 文件格式错误
	ErrInvalidMagic
	ErrVersionMismatch
	ErrCorruptedFile
	ErrChecksumMismatch
	ErrUnknownType

	// 编码错误
	ErrEncodeFailed
	ErrDecodeFailed
	ErrCompressionFailed

	// I/O 错误
	ErrIO
	ErrFileNotFound
	ErrUnexpectedEOF

	// 字段操作错误
	ErrChannelNotFound
	ErrLayerNotFound
	ErrTypeMismatch
	ErrOutOfBounds
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnknown:
		return "Unknown"
	case ErrInvalidArgument:
		return "InvalidArgument"
	case ErrNotSupported:
		return "NotSupported"
	case ErrInvalidMagic:
		return "InvalidMagic"
	case ErrVersionMismatch:
		return "VersionMismatch"
	case ErrCorruptedFile:
		return "CorruptedFile"
	case ErrChecksumMismatch:
		return "ChecksumMismatch"
	case ErrUnknownType:
		return "UnknownType"
	case ErrEncodeFailed:
		return "EncodeFailed"
	case ErrDecodeFailed:
		return "DecodeFailed"
	case ErrCompressionFailed:
		return "CompressionFailed"
	case ErrIO:
		return "IO"
	case ErrFileNotFound:
		return "FileNotFound"
	case ErrUnexpectedEOF:
		return "UnexpectedEOF"
	case ErrChannelNotFound:
		return "ChannelNotFound"
	case ErrLayerNotFound:
		return "LayerNotFound"
	case ErrTypeMismatch:
		return "TypeMismatch"
	case ErrOutOfBounds:
		return "OutOfBounds"
	default:
		return fmt.Sprintf("ErrorCode(%d)", c)
	}
}

// ErrorSeverity 错误严重程度
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota // 可恢复
	SeverityError                        // 操作失败，但状态一致
	SeverityFatal                        // 输入不可用（文件损坏或不兼容）
)

// FieldError is the base error of the storage layer.
type FieldError struct {
	Code     ErrorCode
	Severity ErrorSeverity
	Op       string // e.g. "classify_dtype", "read_layer_header"
	Path     string
	Offset   int64
	Err      error
	Context  map[string]interface{}
	Stack    []byte
}

func (e *FieldError) Error() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("[%s:%s]", e.Code, e.Op))

	if e.Path != "" {
		if e.Offset >= 0 {
			parts = append(parts, fmt.Sprintf("path=%s offset=%d", e.Path, e.Offset))
		} else {
			parts = append(parts, fmt.Sprintf("path=%s", e.Path))
		}
	}

	if len(e.Context) > 0 {
		parts = append(parts, fmt.Sprintf("context=%v", e.Context))
	}

	if e.Err != nil {
		parts = append(parts, fmt.Sprintf("cause=%v", e.Err))
	}

	return "radfield error: " + strings.Join(parts, " | ")
}

// Unwrap 支持 errors.As/Is
func (e *FieldError) Unwrap() error {
	return e.Err
}

// IsCode reports whether the error carries the given code.
func (e *FieldError) IsCode(code ErrorCode) bool {
	return e.Code == code
}

// WithContext 添加上下文（链式调用）
func (e *FieldError) WithContext(key string, value interface{}) *FieldError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// ErrorBuilder assembles a FieldError.
type ErrorBuilder struct {
	err *FieldError
}

func New(code ErrorCode) *ErrorBuilder {
	return &ErrorBuilder{
		err: &FieldError{
			Code:     code,
			Severity: SeverityError,
			Offset:   -1,
			Context:  make(map[string]interface{}),
		},
	}
}

func (b *ErrorBuilder) Op(op string) *ErrorBuilder {
	b.err.Op = op
	return b
}

func (b *ErrorBuilder) Path(path string) *ErrorBuilder {
	b.err.Path = path
	return b
}

func (b *ErrorBuilder) Offset(offset int64) *ErrorBuilder {
	b.err.Offset = offset
	return b
}

func (b *ErrorBuilder) Wrap(err error) *ErrorBuilder {
	b.err.Err = err
	return b
}

func (b *ErrorBuilder) Severity(s ErrorSeverity) *ErrorBuilder {
	b.err.Severity = s
	return b
}

func (b *ErrorBuilder) Context(key string, value interface{}) *ErrorBuilder {
	b.err.Context[key] = value
	return b
}

func (b *ErrorBuilder) WithStack() *ErrorBuilder {
	b.err.Stack = debug.Stack()
	return b
}

func (b *ErrorBuilder) Build() error {
	return b.err
}

// InvalidArg 参数错误
func InvalidArg(op string, msg string) error {
	return New(ErrInvalidArgument).Op(op).Context("message", msg).Build()
}

// IO wraps an I/O failure, mapping unexpected EOFs to their own code.
func IO(op string, path string, err error) error {
	code := ErrIO
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		code = ErrUnexpectedEOF
	}
	return New(code).Op(op).Path(path).Wrap(err).Build()
}

// Is reports whether err, or any FieldError in its chain, carries code.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}

	var fe *FieldError
	if errors.As(err, &fe) {
		if fe.Code == code {
			return true
		}
		if fe.Err != nil {
			return Is(fe.Err, code)
		}
	}

	return false
}

// IsAny 判断是否属于任何一类错误码
func IsAny(err error, codes ...ErrorCode) bool {
	for _, code := range codes {
		if Is(err, code) {
			return true
		}
	}
	return false
}

// IsFatal 判断错误是否致命
func IsFatal(err error) bool {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Severity == SeverityFatal
	}
	return false
}

// GetCode returns the code of the outermost FieldError, or ErrUnknown.
func GetCode(err error) ErrorCode {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrUnknown
}
