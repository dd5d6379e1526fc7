package encoding

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
)

// ZstdCodec compresses payloads with zstd. Encoders and decoders are pooled,
// so a single codec can be shared between goroutines.
type ZstdCodec struct {
	level       int
	encoderPool *sync.Pool
	decoderPool *sync.Pool
}

// NewZstdCodec creates a codec; level is clamped to 1..9 and mapped onto the
// zstd speed tiers.
func NewZstdCodec(level int) *ZstdCodec {
	if level < 1 {
		level = 1
	}
	if level > 9 {
		level = 9
	}

	var encoderLevel zstd.EncoderLevel
	switch {
	case level <= 3:
		encoderLevel = zstd.SpeedFastest
	case level <= 6:
		encoderLevel = zstd.SpeedDefault
	case level <= 8:
		encoderLevel = zstd.SpeedBetterCompression
	default:
		encoderLevel = zstd.SpeedBestCompression
	}

	return &ZstdCodec{
		level: level,
		encoderPool: &sync.Pool{
			New: func() interface{} {
				enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(encoderLevel))
				if err != nil {
					return err
				}
				return enc
			},
		},
		decoderPool: &sync.Pool{
			New: func() interface{} {
				dec, err := zstd.NewReader(nil,
					zstd.WithDecoderConcurrency(1),
					zstd.WithDecoderMaxMemory(format.MaxPayloadSize))
				if err != nil {
					return err
				}
				return dec
			},
		},
	}
}

// Level returns the effective compression level.
func (c *ZstdCodec) Level() int { return c.level }

func (c *ZstdCodec) Type() format.EncodingType {
	return format.EncodingZstd
}

func (c *ZstdCodec) Encode(raw []byte) ([]byte, error) {
	encRaw := c.encoderPool.Get()
	if err, ok := encRaw.(error); ok {
		return nil, lerrors.CompressionFailed("zstd", len(raw), err)
	}
	encoder := encRaw.(*zstd.Encoder)
	defer c.encoderPool.Put(encoder)

	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// Decode streams the frame into a buffer of exactly rawLen bytes, so a
// payload inflating past its declared size fails without being expanded.
func (c *ZstdCodec) Decode(payload []byte, rawLen int) ([]byte, error) {
	decRaw := c.decoderPool.Get()
	if err, ok := decRaw.(error); ok {
		return nil, lerrors.DecodeFailed("zstd", "decoder pool error", err)
	}
	decoder := decRaw.(*zstd.Decoder)
	defer c.decoderPool.Put(decoder)

	// bytes.Reader, not bytes.Buffer: Reset decodes small buffers eagerly
	if err := decoder.Reset(bytes.NewReader(payload)); err != nil {
		return nil, lerrors.DecodeFailed("zstd", "reset decoder", err)
	}

	raw := make([]byte, rawLen)
	n, err := io.ReadFull(decoder, raw)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, DecodeSizeMismatch("zstd", rawLen, n)
	}
	if err != nil {
		return nil, lerrors.DecodeFailed("zstd", "decompress", err)
	}

	var extra [1]byte
	if m, _ := decoder.Read(extra[:]); m > 0 {
		return nil, lerrors.New(lerrors.ErrDecodeFailed).
			Op("decode_zstd").
			Context("expected_bytes", rawLen).
			Context("reason", "payload inflates past declared size").
			Build()
	}
	return raw, nil
}
