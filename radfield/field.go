package radfield

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// Field is a cartesian radiation field: a box of FieldDim metres split into
// voxels of VoxelDim metres. Data lives in named layers grouped by channel.
type Field struct {
	config   *Config
	id       uuid.UUID
	fieldDim vec.Vec3
	voxelDim vec.Vec3
	counts   vec.UVec3

	mu       sync.RWMutex
	channels []*Channel
	byName   map[string]*Channel
	metadata map[string]string
	created  time.Time
}

// NewCartesianField creates an empty field
func NewCartesianField(fieldDim, voxelDim vec.Vec3, opts ...Option) (*Field, error) {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}

	counts, err := voxelCounts(fieldDim, voxelDim)
	if err != nil {
		return nil, wrapError("NewCartesianField", "", err)
	}

	id := config.FieldID
	if id == uuid.Nil {
		id = uuid.New()
	}

	f := &Field{
		config:   config,
		id:       id,
		fieldDim: fieldDim,
		voxelDim: voxelDim,
		counts:   counts,
		byName:   make(map[string]*Channel),
		metadata: make(map[string]string),
		created:  time.Now(),
	}
	config.logger().Debug("field created",
		zap.Stringer("id", id),
		zap.Uint32("nx", counts.X),
		zap.Uint32("ny", counts.Y),
		zap.Uint32("nz", counts.Z))
	return f, nil
}

// voxelCounts returns the voxels per axis, rounding partial voxels up. The
// epsilon absorbs float32 error in ratios like 2/0.1.
func voxelCounts(fieldDim, voxelDim vec.Vec3) (vec.UVec3, error) {
	axis := func(f, v float32) (uint32, error) {
		if !(f > 0) || !(v > 0) || math.IsInf(float64(f), 0) {
			return 0, fmt.Errorf("%w: field %v, voxel %v", ErrInvalidDimensions, f, v)
		}
		n := math.Ceil(float64(f)/float64(v) - 1e-4)
		if n < 1 || n > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %v voxels on one axis", ErrInvalidDimensions, n)
		}
		return uint32(n), nil
	}

	x, err := axis(fieldDim.X, voxelDim.X)
	if err != nil {
		return vec.UVec3{}, err
	}
	y, err := axis(fieldDim.Y, voxelDim.Y)
	if err != nil {
		return vec.UVec3{}, err
	}
	z, err := axis(fieldDim.Z, voxelDim.Z)
	if err != nil {
		return vec.UVec3{}, err
	}
	return vec.UVec3{X: x, Y: y, Z: z}, nil
}

func (f *Field) ID() uuid.UUID          { return f.id }
func (f *Field) FieldDim() vec.Vec3     { return f.fieldDim }
func (f *Field) VoxelDim() vec.Vec3     { return f.voxelDim }
func (f *Field) VoxelCounts() vec.UVec3 { return f.counts }
func (f *Field) NumVoxels() uint64      { return f.counts.Volume() }

// VoxelIndex maps a position in metres, measured from the field origin
// corner, to the voxel containing it.
func (f *Field) VoxelIndex(pos vec.Vec3) (vec.UVec3, error) {
	axis := func(p, v float32, n uint32) (uint32, bool) {
		if p < 0 {
			return 0, false
		}
		i := uint64(p / v)
		if i >= uint64(n) {
			return 0, false
		}
		return uint32(i), true
	}

	x, okX := axis(pos.X, f.voxelDim.X, f.counts.X)
	y, okY := axis(pos.Y, f.voxelDim.Y, f.counts.Y)
	z, okZ := axis(pos.Z, f.voxelDim.Z, f.counts.Z)
	if !okX || !okY || !okZ {
		return vec.UVec3{}, lerrors.New(lerrors.ErrOutOfBounds).
			Op("voxel_index").
			Context("position", pos).
			Context("field_dim", f.fieldDim).
			Build()
	}
	return vec.UVec3{X: x, Y: y, Z: z}, nil
}

// FlatIndex converts voxel coordinates to the flat index shared by all layers
func (f *Field) FlatIndex(v vec.UVec3) (uint64, error) {
	if v.X >= f.counts.X || v.Y >= f.counts.Y || v.Z >= f.counts.Z {
		return 0, lerrors.New(lerrors.ErrOutOfBounds).
			Op("flat_index").
			Context("voxel", v).
			Context("counts", f.counts).
			Build()
	}
	return flatIndex(f.counts, v.X, v.Y, v.Z), nil
}

// AddChannel adds an empty channel
func (f *Field) AddChannel(name string) (*Channel, error) {
	if name == "" {
		return nil, wrapError("AddChannel", name,
			lerrors.InvalidArg("add_channel", "empty channel name"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.byName[name]; exists {
		return nil, wrapError("AddChannel", name, ErrChannelExists)
	}

	ch := newChannel(name, f.counts, f.config)
	f.channels = append(f.channels, ch)
	f.byName[name] = ch
	return ch, nil
}

// Channel returns a channel by name
func (f *Field) Channel(name string) (*Channel, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	ch, ok := f.byName[name]
	if !ok {
		return nil, lerrors.ChannelNotFound(name, f.channelNamesLocked())
	}
	return ch, nil
}

// Channels returns the channels in insertion order
func (f *Field) Channels() []*Channel {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]*Channel, len(f.channels))
	copy(out, f.channels)
	return out
}

// ChannelNames returns the channel names in insertion order
func (f *Field) ChannelNames() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.channelNamesLocked()
}

func (f *Field) channelNamesLocked() []string {
	names := make([]string, len(f.channels))
	for i, ch := range f.channels {
		names[i] = ch.name
	}
	return names
}

// Layer is a shortcut for Channel(channel).Layer(name)
func (f *Field) Layer(channel, name string) (*Layer, error) {
	ch, err := f.Channel(channel)
	if err != nil {
		return nil, err
	}
	return ch.Layer(name)
}

// SetMetadata stores a free-form key/value pair saved with the field
func (f *Field) SetMetadata(key, value string) error {
	if key == "" {
		return wrapError("SetMetadata", key, lerrors.InvalidArg("set_metadata", "empty key"))
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.metadata[key] = value
	return nil
}

// Metadata returns the value stored for key
func (f *Field) Metadata(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.metadata[key]
	return v, ok
}

// MetadataKeys returns the metadata keys in sorted order
func (f *Field) MetadataKeys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	keys := make([]string, 0, len(f.metadata))
	for k := range f.metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CreatedAt returns when the field was first created
func (f *Field) CreatedAt() time.Time { return f.created }
