package radfield

import (
	"fmt"
	"math"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// TracerAlgorithm selects how a Tracer walks the voxel grid
type TracerAlgorithm int

const (
	// Sampling tests points along the segment, four per voxel length
	Sampling TracerAlgorithm = iota
	// Bresenham steps from voxel to voxel with integer arithmetic
	Bresenham
)

// samplesPerVoxel is the sampling density along the shortest voxel edge
const samplesPerVoxel = 4

func (a TracerAlgorithm) String() string {
	switch a {
	case Sampling:
		return "Sampling"
	case Bresenham:
		return "Bresenham"
	default:
		return fmt.Sprintf("TracerAlgorithm(%d)", int(a))
	}
}

// Tracer lists the voxels a line segment passes through.
type Tracer interface {
	// Trace returns the flat indices of the voxels entered by the segment
	// from -> to, in order of traversal. The voxel containing from is not
	// entered and so not listed. Parts of the segment outside the field are
	// ignored.
	Trace(from, to vec.Vec3) []uint64
}

// NewTracer returns a tracer over the grid of f
func NewTracer(f *Field, alg TracerAlgorithm) (Tracer, error) {
	switch alg {
	case Sampling:
		d := f.voxelDim
		step := math.Min(float64(d.X), math.Min(float64(d.Y), float64(d.Z))) / samplesPerVoxel
		return &samplingTracer{field: f, step: step}, nil
	case Bresenham:
		return &bresenhamTracer{field: f}, nil
	default:
		return nil, wrapError("NewTracer", "", lerrors.New(lerrors.ErrNotSupported).
			Op("new_tracer").
			Context("algorithm", alg.String()).
			Build())
	}
}

type samplingTracer struct {
	field *Field
	step  float64
}

func (t *samplingTracer) Trace(from, to vec.Vec3) []uint64 {
	p0, p1, ok := t.field.clipSegment(from, to)
	if !ok {
		return nil
	}

	seen := make(map[uint64]struct{})
	if start, err := t.field.VoxelIndex(from); err == nil {
		idx, _ := t.field.FlatIndex(start)
		seen[idx] = struct{}{}
	}

	var d [3]float64
	for i := range d {
		d[i] = p1[i] - p0[i]
	}
	n := int(math.Ceil(math.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2]) / t.step))
	if n < 1 {
		n = 1
	}

	var out []uint64
	for i := 0; i <= n; i++ {
		s := float64(i) / float64(n)
		p := vec.Vec3{
			X: float32(p0[0] + s*d[0]),
			Y: float32(p0[1] + s*d[1]),
			Z: float32(p0[2] + s*d[2]),
		}
		// the clipped end point may sit on the far face of the grid
		v, err := t.field.VoxelIndex(p)
		if err != nil {
			continue
		}
		idx, _ := t.field.FlatIndex(v)
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

type bresenhamTracer struct {
	field *Field
}

func (t *bresenhamTracer) Trace(from, to vec.Vec3) []uint64 {
	p0, p1, ok := t.field.clipSegment(from, to)
	if !ok {
		return nil
	}
	_, err := t.field.VoxelIndex(from)
	skipStart := err == nil

	var out []uint64
	walkLine(t.field.voxelOf(p0), t.field.voxelOf(p1), func(v [3]int64) {
		if skipStart {
			skipStart = false
			return
		}
		idx, _ := t.field.FlatIndex(vec.UVec3{X: uint32(v[0]), Y: uint32(v[1]), Z: uint32(v[2])})
		out = append(out, idx)
	})
	return out
}

// walkLine visits every voxel of the 3D Bresenham line from a to b, both
// included, stepping once per voxel along the dominant axis.
func walkLine(a, b [3]int64, visit func([3]int64)) {
	var d, s [3]int64
	for i := range d {
		d[i], s[i] = b[i]-a[i], 1
		if d[i] < 0 {
			d[i], s[i] = -d[i], -1
		}
	}
	m := 0
	for i := 1; i < 3; i++ {
		if d[i] > d[m] {
			m = i
		}
	}
	o1, o2 := (m+1)%3, (m+2)%3
	e1, e2 := 2*d[o1]-d[m], 2*d[o2]-d[m]

	p := a
	visit(p)
	for p[m] != b[m] {
		p[m] += s[m]
		if e1 >= 0 {
			p[o1] += s[o1]
			e1 -= 2 * d[m]
		}
		if e2 >= 0 {
			p[o2] += s[o2]
			e2 -= 2 * d[m]
		}
		e1 += 2 * d[o1]
		e2 += 2 * d[o2]
		visit(p)
	}
}

// clipSegment clips from -> to against the grid box [0, counts*voxelDim]
// (slab method). ok is false when the segment misses the box.
func (f *Field) clipSegment(from, to vec.Vec3) (p0, p1 [3]float64, ok bool) {
	a := [3]float64{float64(from.X), float64(from.Y), float64(from.Z)}
	b := [3]float64{float64(to.X), float64(to.Y), float64(to.Z)}
	ext := [3]float64{
		float64(f.counts.X) * float64(f.voxelDim.X),
		float64(f.counts.Y) * float64(f.voxelDim.Y),
		float64(f.counts.Z) * float64(f.voxelDim.Z),
	}

	t0, t1 := 0.0, 1.0
	for i := range a {
		d := b[i] - a[i]
		if d == 0 {
			if a[i] < 0 || a[i] >= ext[i] {
				return p0, p1, false
			}
			continue
		}
		lo, hi := -a[i]/d, (ext[i]-a[i])/d
		if lo > hi {
			lo, hi = hi, lo
		}
		t0, t1 = math.Max(t0, lo), math.Min(t1, hi)
		if t0 > t1 {
			return p0, p1, false
		}
	}
	for i := range a {
		p0[i] = a[i] + t0*(b[i]-a[i])
		p1[i] = a[i] + t1*(b[i]-a[i])
	}
	return p0, p1, true
}

// voxelOf returns the voxel containing p, clamped to the grid so points on
// the far faces map to the last voxel.
func (f *Field) voxelOf(p [3]float64) [3]int64 {
	dims := [3]float64{float64(f.voxelDim.X), float64(f.voxelDim.Y), float64(f.voxelDim.Z)}
	counts := [3]int64{int64(f.counts.X), int64(f.counts.Y), int64(f.counts.Z)}

	var v [3]int64
	for i := range v {
		c := int64(math.Floor(p[i] / dims[i]))
		v[i] = min(max(c, 0), counts[i]-1)
	}
	return v
}
