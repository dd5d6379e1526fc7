package radfield

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/wzqhbustb/radfield/storage/dtype"
	"github.com/wzqhbustb/radfield/storage/encoding"
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
)

// FileInfo describes a field file without its voxel data
type FileInfo struct {
	Header   format.FileHeader
	Channels []string
	Layers   []format.LayerHeader
	Footer   format.Footer
}

// Save writes the field to w: file header, channel table, every layer header
// followed by its encoded payload, and finally the metadata footer.
func Save(w io.Writer, f *Field) error {
	if err := save(w, f); err != nil {
		return wrapError("Save", "", err)
	}
	return nil
}

func save(w io.Writer, f *Field) error {
	log := f.config.logger()

	if !f.config.Compression.Valid() {
		return encoding.UnsupportedEncoding(f.config.Compression)
	}
	codecs := newCodecCache(f.config.CompressionLevel)

	channels := f.Channels()
	names := make([]string, len(channels))
	var layers []*Layer
	var layerChannels []string
	for i, ch := range channels {
		names[i] = ch.Name()
		for _, l := range ch.Layers() {
			layers = append(layers, l)
			layerChannels = append(layerChannels, ch.Name())
		}
	}

	header := format.NewFileHeader(f.id, f.fieldDim, f.voxelDim, f.counts, len(channels), len(layers))
	if f.config.Compression != format.EncodingPlain {
		header.SetFlag(format.FlagCompressed)
	}
	for _, l := range layers {
		if l.DType() == dtype.Hist {
			header.SetFlag(format.FlagHistograms)
			break
		}
	}

	if _, err := header.WriteTo(w); err != nil {
		return err
	}
	if _, err := format.WriteChannelNames(w, names); err != nil {
		return err
	}

	for i, l := range layers {
		lh, err := format.NewLayerHeader(layerChannels[i], l.Name(), l.Unit(), l.DType(), l.Bins(), l.NumVoxels())
		if err != nil {
			return err
		}

		codec, err := codecs.get(f.config.Compression, l.DType())
		if err != nil {
			return err
		}
		payload, err := codec.Encode(l.Bytes())
		if err != nil {
			return err
		}
		lh.SetPayload(codec.Type(), payload)

		if _, err := lh.WriteTo(w); err != nil {
			return err
		}
		if _, err := w.Write(payload); err != nil {
			return lerrors.IO("write_payload", "", err)
		}

		log.Debug("layer written",
			zap.String("channel", lh.Channel),
			zap.String("layer", lh.Name),
			zap.String("type_tag", lh.TypeTag),
			zap.Uint64("raw_bytes", lh.RawLen),
			zap.Uint64("stored_bytes", lh.PayloadLen))
	}

	footer := format.NewFooter()
	footer.CreatedAt = f.created.Unix()
	for _, k := range f.MetadataKeys() {
		v, _ := f.Metadata(k)
		footer.Metadata[k] = v
	}
	if _, err := footer.WriteTo(w); err != nil {
		return err
	}

	log.Debug("field saved",
		zap.Stringer("id", f.id),
		zap.Int("channels", len(channels)),
		zap.Int("layers", len(layers)))
	return nil
}

// codecCache shares codecs between layers of the same encoding and kind.
type codecCache struct {
	level  int
	codecs map[codecKey]encoding.Codec
}

type codecKey struct {
	enc format.EncodingType
	dt  dtype.DType
}

func newCodecCache(level int) *codecCache {
	return &codecCache{level: level, codecs: make(map[codecKey]encoding.Codec)}
}

func (c *codecCache) get(enc format.EncodingType, dt dtype.DType) (encoding.Codec, error) {
	key := codecKey{enc: enc, dt: dt}
	if codec, ok := c.codecs[key]; ok {
		return codec, nil
	}
	codec, err := encoding.NewCodec(enc, dt, c.level)
	if err != nil {
		return nil, err
	}
	c.codecs[key] = codec
	return codec, nil
}

// Load reads a field written by Save. Options apply to the returned field;
// its ID always comes from the file.
func Load(r io.Reader, opts ...Option) (*Field, error) {
	f, err := load(r, opts)
	if err != nil {
		return nil, wrapError("Load", "", err)
	}
	return f, nil
}

func load(r io.Reader, opts []Option) (*Field, error) {
	var header format.FileHeader
	if _, err := header.ReadFrom(r); err != nil {
		return nil, err
	}

	opts = append(append([]Option(nil), opts...), WithFieldID(header.FieldID))
	f, err := NewCartesianField(header.FieldDim, header.VoxelDim, opts...)
	if err != nil {
		return nil, err
	}
	// the stored grid wins over one recomputed from float dimensions
	f.counts = header.VoxelCounts
	log := f.config.logger()

	names, _, err := format.ReadChannelNames(r, header.NumChannels)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		if _, err := f.AddChannel(name); err != nil {
			return nil, err
		}
	}

	codecs := newCodecCache(f.config.CompressionLevel)
	for i := uint32(0); i < header.NumLayers; i++ {
		var lh format.LayerHeader
		if _, err := lh.ReadFrom(r); err != nil {
			return nil, err
		}
		if lh.NumVoxels != header.NumVoxels() {
			return nil, lerrors.FormatCorrupted("", -1, "layer voxel count differs from field")
		}

		payload, err := readPayload(r, lh.PayloadLen)
		if err != nil {
			return nil, err
		}
		if err := lh.VerifyPayload(payload); err != nil {
			return nil, err
		}

		codec, err := codecs.get(lh.Encoding, lh.DType)
		if err != nil {
			return nil, err
		}
		raw, err := codec.Decode(payload, int(lh.RawLen))
		if err != nil {
			return nil, err
		}

		ch, err := f.Channel(lh.Channel)
		if err != nil {
			return nil, lerrors.New(lerrors.ErrCorruptedFile).
				Op("load_layer").
				Context("layer", lh.Name).
				Severity(lerrors.SeverityFatal).
				Wrap(err).
				Build()
		}
		var l *Layer
		if lh.DType == dtype.Hist {
			l, err = ch.AddHistogramLayer(lh.Name, lh.Unit, lh.Bins)
		} else {
			l, err = ch.AddLayer(lh.Name, lh.Unit, lh.DType)
		}
		if err != nil {
			return nil, err
		}
		if err := l.SetBytes(raw); err != nil {
			return nil, err
		}

		log.Debug("layer read",
			zap.String("channel", lh.Channel),
			zap.String("layer", lh.Name),
			zap.String("type_tag", lh.TypeTag),
			zap.Stringer("dtype", lh.DType))
	}

	var footer format.Footer
	if _, err := footer.ReadFrom(r); err != nil {
		return nil, err
	}
	f.created = time.Unix(footer.CreatedAt, 0)
	for k, v := range footer.Metadata {
		f.metadata[k] = v
	}

	log.Debug("field loaded",
		zap.Stringer("id", f.id),
		zap.Uint32("channels", header.NumChannels),
		zap.Uint32("layers", header.NumLayers))
	return f, nil
}

// readPayload grows the buffer with the data actually present, so a corrupt
// length cannot force a huge allocation up front.
func readPayload(r io.Reader, n uint64) ([]byte, error) {
	var buf bytes.Buffer
	copied, err := io.CopyN(&buf, r, int64(n))
	if err != nil {
		if err == io.EOF {
			return nil, lerrors.New(lerrors.ErrUnexpectedEOF).
				Op("read_payload").
				Context("expected_bytes", n).
				Context("actual_bytes", copied).
				Severity(lerrors.SeverityFatal).
				Build()
		}
		return nil, lerrors.IO("read_payload", "", err)
	}
	return buf.Bytes(), nil
}

// Inspect reads the headers of a field file, skipping voxel data
func Inspect(r io.Reader) (*FileInfo, error) {
	info := &FileInfo{}
	if _, err := info.Header.ReadFrom(r); err != nil {
		return nil, wrapError("Inspect", "", err)
	}

	names, _, err := format.ReadChannelNames(r, info.Header.NumChannels)
	if err != nil {
		return nil, wrapError("Inspect", "", err)
	}
	info.Channels = names

	for i := uint32(0); i < info.Header.NumLayers; i++ {
		var lh format.LayerHeader
		if _, err := lh.ReadFrom(r); err != nil {
			return nil, wrapError("Inspect", "", err)
		}
		if _, err := io.CopyN(io.Discard, r, int64(lh.PayloadLen)); err != nil {
			return nil, wrapError("Inspect", lh.Channel+"/"+lh.Name, lerrors.IO("skip_payload", "", err))
		}
		info.Layers = append(info.Layers, lh)
	}

	if _, err := info.Footer.ReadFrom(r); err != nil {
		return nil, wrapError("Inspect", "", err)
	}
	return info, nil
}

// SaveFile writes the field to path, replacing any existing file
func SaveFile(path string, f *Field) error {
	file, err := os.Create(path)
	if err != nil {
		return wrapError("SaveFile", path, lerrors.IO("create_file", path, err))
	}

	bw := bufio.NewWriter(file)
	if err := save(bw, f); err != nil {
		file.Close()
		return wrapError("SaveFile", path, err)
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		return wrapError("SaveFile", path, lerrors.IO("flush_file", path, err))
	}
	if err := file.Close(); err != nil {
		return wrapError("SaveFile", path, lerrors.IO("close_file", path, err))
	}
	return nil
}

// LoadFile reads a field from path
func LoadFile(path string, opts ...Option) (*Field, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, wrapError("LoadFile", path, lerrors.New(lerrors.ErrFileNotFound).
				Op("open_file").Path(path).Wrap(err).Build())
		}
		return nil, wrapError("LoadFile", path, lerrors.IO("open_file", path, err))
	}
	defer file.Close()

	f, err := load(bufio.NewReader(file), opts)
	if err != nil {
		return nil, wrapError("LoadFile", path, err)
	}
	return f, nil
}

// InspectFile reads the headers of the field file at path
func InspectFile(path string) (*FileInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, wrapError("InspectFile", path, lerrors.IO("open_file", path, err))
	}
	defer file.Close()
	return Inspect(bufio.NewReader(file))
}
