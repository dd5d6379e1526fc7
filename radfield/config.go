package radfield

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wzqhbustb/radfield/storage/format"
)

// Config holds field configuration
type Config struct {
	// Identity; a random ID is assigned when nil
	FieldID uuid.UUID

	// Storage configuration
	Compression      format.EncodingType
	CompressionLevel int // 1-9 for ZSTD

	// Logger overrides the package logger for this field
	Logger *zap.Logger
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		FieldID:          uuid.Nil,
		Compression:      format.EncodingZstd,
		CompressionLevel: 3,
	}
}

// Option is a functional option for configuration
type Option func(*Config)

// WithFieldID sets the field identity
func WithFieldID(id uuid.UUID) Option {
	return func(c *Config) {
		c.FieldID = id
	}
}

// WithCompression selects the payload encoding used on save
func WithCompression(enc format.EncodingType) Option {
	return func(c *Config) {
		c.Compression = enc
	}
}

// WithCompressionLevel sets the zstd level (1-9)
func WithCompressionLevel(level int) Option {
	return func(c *Config) {
		c.CompressionLevel = level
	}
}

// WithLogger sets a per-field logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

func (c *Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return Logger()
}
