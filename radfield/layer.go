package radfield

import (
	"fmt"
	"math"
	"sync"

	"github.com/wzqhbustb/radfield/storage/dtype"
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/format"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// Layer is one quantity over all voxels of a field, stored as a flat
// little-endian buffer in x-fastest order.
type Layer struct {
	name       string
	unit       string
	dt         dtype.DType
	bins       uint32
	counts     vec.UVec3
	elemSize   int
	voxelBytes int

	mu   sync.RWMutex
	data []byte
}

func newLayer(name, unit string, dt dtype.DType, bins uint32, counts vec.UVec3) (*Layer, error) {
	elemSize, err := dtype.SizeOf(dt)
	if err != nil {
		return nil, err
	}
	voxelBytes := elemSize * int(bins)
	total := counts.Volume() * uint64(voxelBytes)
	if total > format.MaxPayloadSize {
		return nil, lerrors.InvalidArg("new_layer",
			fmt.Sprintf("layer of %d bytes exceeds %d", total, int64(format.MaxPayloadSize)))
	}
	return &Layer{
		name:       name,
		unit:       unit,
		dt:         dt,
		bins:       bins,
		counts:     counts,
		elemSize:   elemSize,
		voxelBytes: voxelBytes,
		data:       make([]byte, total),
	}, nil
}

func (l *Layer) Name() string       { return l.name }
func (l *Layer) Unit() string       { return l.unit }
func (l *Layer) DType() dtype.DType { return l.dt }

// Bins returns the elements per voxel; 1 for non-histogram layers.
func (l *Layer) Bins() uint32 { return l.bins }

// NumVoxels returns the number of voxels in the layer
func (l *Layer) NumVoxels() uint64 { return l.counts.Volume() }

// VoxelSize returns the bytes one voxel occupies
func (l *Layer) VoxelSize() int { return l.voxelBytes }

// Bytes returns a copy of the raw layer buffer
func (l *Layer) Bytes() []byte {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]byte, len(l.data))
	copy(out, l.data)
	return out
}

// SetBytes replaces the layer buffer; raw must match the layer size.
func (l *Layer) SetBytes(raw []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(raw) != len(l.data) {
		return lerrors.New(lerrors.ErrInvalidArgument).
			Op("set_layer_bytes").
			Context("layer", l.name).
			Context("expected_bytes", len(l.data)).
			Context("actual_bytes", len(raw)).
			Build()
	}
	copy(l.data, raw)
	return nil
}

// FlatIndex converts voxel coordinates to the flat voxel index
func (l *Layer) FlatIndex(x, y, z uint32) (uint64, error) {
	if x >= l.counts.X || y >= l.counts.Y || z >= l.counts.Z {
		return 0, lerrors.New(lerrors.ErrOutOfBounds).
			Op("flat_index").
			Context("layer", l.name).
			Context("voxel", vec.UVec3{X: x, Y: y, Z: z}).
			Context("counts", l.counts).
			Build()
	}
	return flatIndex(l.counts, x, y, z), nil
}

// flatIndex is x + y*nx + z*nx*ny; coordinates must be in range.
func flatIndex(counts vec.UVec3, x, y, z uint32) uint64 {
	nx, ny := uint64(counts.X), uint64(counts.Y)
	return uint64(x) + uint64(y)*nx + uint64(z)*nx*ny
}

func (l *Layer) offset(op string, idx uint64) (int, error) {
	if idx >= l.NumVoxels() {
		return 0, lerrors.OutOfBounds(op, l.name, idx, l.NumVoxels())
	}
	return int(idx) * l.voxelBytes, nil
}

func (l *Layer) checkElement(op string, want dtype.DType) error {
	if l.dt == dtype.Hist {
		return wrapError(op, l.name, ErrHistogramLayer)
	}
	if l.dt != want {
		return lerrors.TypeMismatch(op, l.name, l.dt.String(), want.String())
	}
	return nil
}

// GetVoxel reads the voxel at (x, y, z). T must match the layer kind.
func GetVoxel[T dtype.Element](l *Layer, x, y, z uint32) (T, error) {
	idx, err := l.FlatIndex(x, y, z)
	if err != nil {
		var zero T
		return zero, err
	}
	return GetVoxelAt[T](l, idx)
}

// GetVoxelAt reads the voxel at a flat index
func GetVoxelAt[T dtype.Element](l *Layer, idx uint64) (T, error) {
	var zero T
	if err := l.checkElement("get_voxel", dtype.Of[T]()); err != nil {
		return zero, err
	}
	off, err := l.offset("get_voxel", idx)
	if err != nil {
		return zero, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	return getElement[T](l.data[off:]), nil
}

// SetVoxel writes the voxel at (x, y, z). T must match the layer kind.
func SetVoxel[T dtype.Element](l *Layer, x, y, z uint32, v T) error {
	idx, err := l.FlatIndex(x, y, z)
	if err != nil {
		return err
	}
	return SetVoxelAt(l, idx, v)
}

// SetVoxelAt writes the voxel at a flat index
func SetVoxelAt[T dtype.Element](l *Layer, idx uint64, v T) error {
	if err := l.checkElement("set_voxel", dtype.Of[T]()); err != nil {
		return err
	}
	off, err := l.offset("set_voxel", idx)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	putElement(l.data[off:], v)
	return nil
}

// Fill sets every voxel of the layer to v
func Fill[T dtype.Element](l *Layer, v T) error {
	if err := l.checkElement("fill", dtype.Of[T]()); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for off := 0; off < len(l.data); off += l.voxelBytes {
		putElement(l.data[off:], v)
	}
	return nil
}

// Values returns a copy of all voxels in flat index order
func Values[T dtype.Element](l *Layer) ([]T, error) {
	if err := l.checkElement("values", dtype.Of[T]()); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]T, l.NumVoxels())
	for i := range out {
		out[i] = getElement[T](l.data[i*l.voxelBytes:])
	}
	return out, nil
}

// Histogram returns a copy of the bin weights of voxel (x, y, z)
func (l *Layer) Histogram(x, y, z uint32) ([]float32, error) {
	idx, err := l.FlatIndex(x, y, z)
	if err != nil {
		return nil, err
	}
	off, err := l.histogramOffset("histogram", idx)
	if err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]float32, l.bins)
	for i := range out {
		out[i] = getElement[float32](l.data[off+i*l.elemSize:])
	}
	return out, nil
}

// SetHistogram writes the bin weights of voxel (x, y, z); len(bins) must
// equal Bins().
func (l *Layer) SetHistogram(x, y, z uint32, bins []float32) error {
	idx, err := l.FlatIndex(x, y, z)
	if err != nil {
		return err
	}
	off, err := l.histogramOffset("set_histogram", idx)
	if err != nil {
		return err
	}
	if len(bins) != int(l.bins) {
		return lerrors.InvalidArg("set_histogram",
			fmt.Sprintf("got %d bins, layer has %d", len(bins), l.bins))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	for i, w := range bins {
		putElement(l.data[off+i*l.elemSize:], w)
	}
	return nil
}

func (l *Layer) histogramOffset(op string, idx uint64) (int, error) {
	if l.dt != dtype.Hist {
		return 0, wrapError(op, l.name, ErrHistogramLayer)
	}
	return l.offset(op, idx)
}

func putElement[T dtype.Element](b []byte, v T) {
	order := format.ByteOrder
	switch x := any(v).(type) {
	case float32:
		order.PutUint32(b, math.Float32bits(x))
	case float64:
		order.PutUint64(b, math.Float64bits(x))
	case int32:
		order.PutUint32(b, uint32(x))
	case int8:
		b[0] = byte(x)
	case uint8:
		b[0] = x
	case uint64:
		order.PutUint64(b, x)
	case uint32:
		order.PutUint32(b, x)
	case vec.Vec2:
		putFloats(b, x.X, x.Y)
	case vec.Vec3:
		putFloats(b, x.X, x.Y, x.Z)
	case vec.Vec4:
		putFloats(b, x.X, x.Y, x.Z, x.W)
	}
}

func getElement[T dtype.Element](b []byte) T {
	order := format.ByteOrder
	var v T
	switch p := any(&v).(type) {
	case *float32:
		*p = math.Float32frombits(order.Uint32(b))
	case *float64:
		*p = math.Float64frombits(order.Uint64(b))
	case *int32:
		*p = int32(order.Uint32(b))
	case *int8:
		*p = int8(b[0])
	case *uint8:
		*p = b[0]
	case *uint64:
		*p = order.Uint64(b)
	case *uint32:
		*p = order.Uint32(b)
	case *vec.Vec2:
		*p = vec.Vec2{X: getFloat(b, 0), Y: getFloat(b, 1)}
	case *vec.Vec3:
		*p = vec.Vec3{X: getFloat(b, 0), Y: getFloat(b, 1), Z: getFloat(b, 2)}
	case *vec.Vec4:
		*p = vec.Vec4{X: getFloat(b, 0), Y: getFloat(b, 1), Z: getFloat(b, 2), W: getFloat(b, 3)}
	}
	return v
}

func putFloats(b []byte, fs ...float32) {
	for i, f := range fs {
		format.ByteOrder.PutUint32(b[i*4:], math.Float32bits(f))
	}
}

func getFloat(b []byte, i int) float32 {
	return math.Float32frombits(format.ByteOrder.Uint32(b[i*4:]))
}
