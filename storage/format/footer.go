package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"sort"
	"time"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
)

// MaxMetadataSize bounds the encoded metadata block (1 MB)
const MaxMetadataSize = 1024 * 1024

// Footer follows the last layer payload and carries free-form field metadata
type Footer struct {
	CreatedAt  int64             // Unix timestamp
	ModifiedAt int64             // Unix timestamp
	Metadata   map[string]string // e.g. simulation parameters
	Checksum   uint32            // CRC32 of everything before it
}

// NewFooter creates a new footer
func NewFooter() *Footer {
	now := time.Now().Unix()
	return &Footer{
		CreatedAt:  now,
		ModifiedAt: now,
		Metadata:   make(map[string]string),
	}
}

// AddMetadata adds a metadata entry
func (f *Footer) AddMetadata(key, value string) {
	if f.Metadata == nil {
		f.Metadata = make(map[string]string)
	}
	f.Metadata[key] = value
	f.ModifiedAt = time.Now().Unix()
}

// Validate validates the footer
func (f *Footer) Validate() error {
	if f.CreatedAt <= 0 {
		return lerrors.ValidationFailed("validate_footer", "",
			fmt.Sprintf("invalid created timestamp: %d", f.CreatedAt))
	}
	if f.ModifiedAt < f.CreatedAt {
		return lerrors.ValidationFailed("validate_footer", "",
			fmt.Sprintf("modified %d before created %d", f.ModifiedAt, f.CreatedAt))
	}
	for k := range f.Metadata {
		if k == "" || len(k) > MaxNameLen {
			return lerrors.ValidationFailed("validate_footer", "",
				fmt.Sprintf("invalid metadata key %q", k))
		}
	}
	return nil
}

// WriteTo writes the footer to a writer. Keys are written sorted so equal
// footers encode identically.
func (f *Footer) WriteTo(w io.Writer) (int64, error) {
	if err := f.Validate(); err != nil {
		return 0, NewFileError("write footer", err)
	}

	// writes into a bytes.Buffer cannot fail
	buf := new(bytes.Buffer)
	binary.Write(buf, ByteOrder, f.CreatedAt)
	binary.Write(buf, ByteOrder, f.ModifiedAt)

	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	binary.Write(buf, ByteOrder, uint32(len(keys)))
	for _, k := range keys {
		v := f.Metadata[k]
		writeString(buf, k)
		binary.Write(buf, ByteOrder, uint32(len(v)))
		buf.WriteString(v)
	}

	if buf.Len() > MaxMetadataSize {
		return 0, lerrors.New(lerrors.ErrInvalidArgument).
			Op("write_footer").
			Context("size", buf.Len()).
			Context("max_size", MaxMetadataSize).
			Context("message", "metadata too large").
			Build()
	}

	f.Checksum = crc32.ChecksumIEEE(buf.Bytes())
	binary.Write(buf, ByteOrder, f.Checksum)

	n, err := w.Write(buf.Bytes())
	if err != nil {
		return int64(n), lerrors.IO("write_footer", "", err)
	}
	return int64(n), nil
}

// ReadFrom reads and verifies the footer
func (f *Footer) ReadFrom(r io.Reader) (int64, error) {
	// Everything read is mirrored into raw for the checksum.
	var raw bytes.Buffer
	tr := io.TeeReader(io.LimitReader(r, MaxMetadataSize), &raw)

	var count uint32
	for _, dst := range []interface{}{&f.CreatedAt, &f.ModifiedAt, &count} {
		if err := binary.Read(tr, ByteOrder, dst); err != nil {
			return int64(raw.Len()), lerrors.IO("read_footer", "", err)
		}
	}

	f.Metadata = make(map[string]string)
	for i := uint32(0); i < count; i++ {
		key, _, err := readString(tr, "metadata_key", MaxNameLen)
		if err != nil {
			return int64(raw.Len()), err
		}
		var valueLen uint32
		if err := binary.Read(tr, ByteOrder, &valueLen); err != nil {
			return int64(raw.Len()), lerrors.IO("read_footer", "", err)
		}
		var value bytes.Buffer
		if _, err := io.CopyN(&value, tr, int64(valueLen)); err != nil {
			return int64(raw.Len()), lerrors.IO("read_footer", "", err)
		}
		f.Metadata[key] = value.String()
	}

	computed := crc32.ChecksumIEEE(raw.Bytes())
	if err := binary.Read(r, ByteOrder, &f.Checksum); err != nil {
		return int64(raw.Len()), lerrors.IO("read_footer_checksum", "", err)
	}
	n := int64(raw.Len()) + 4
	if computed != f.Checksum {
		return n, lerrors.ChecksumMismatch("read_footer", "footer", f.Checksum, computed)
	}

	if err := f.Validate(); err != nil {
		return n, err
	}
	return n, nil
}
