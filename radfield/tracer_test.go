package radfield

import (
	"testing"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

func newTracerField(t *testing.T) *Field {
	t.Helper()
	f, err := NewCartesianField(vec.Vec3{X: 1, Y: 1, Z: 1}, vec.Vec3{X: 0.01, Y: 0.01, Z: 0.01})
	if err != nil {
		t.Fatalf("NewCartesianField failed: %v", err)
	}
	f.AddChannel("test")
	return f
}

func TestTraceCounts(t *testing.T) {
	tests := []struct {
		name     string
		from, to vec.Vec3
		want     int
	}{
		{"bottom to top", vec.Vec3{X: 0.5, Y: 0.5, Z: 0}, vec.Vec3{X: 0.5, Y: 0.5, Z: 1}, 99},
		{"point to itself", vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, 0},
		{"outside positive", vec.Vec3{X: 2, Y: 2, Z: 2}, vec.Vec3{X: 3.5, Y: 3.5, Z: 3}, 0},
		{"outside negative", vec.Vec3{X: -2, Y: -2, Z: -2}, vec.Vec3{X: -3.5, Y: -3.5, Z: -3}, 0},
		{"middle to top", vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, vec.Vec3{X: 0.5, Y: 0.5, Z: 1}, 49},
		{"corner to corner", vec.Vec3{X: 0, Y: 0, Z: 0}, vec.Vec3{X: 1, Y: 1, Z: 1}, 99},
	}

	f := newTracerField(t)
	for _, alg := range []TracerAlgorithm{Sampling, Bresenham} {
		tracer, err := NewTracer(f, alg)
		if err != nil {
			t.Fatalf("NewTracer(%v) failed: %v", alg, err)
		}
		for _, tt := range tests {
			t.Run(alg.String()+"/"+tt.name, func(t *testing.T) {
				if got := tracer.Trace(tt.from, tt.to); len(got) != tt.want {
					t.Errorf("Trace returned %d indices, want %d", len(got), tt.want)
				}
			})
		}
	}
}

func TestTraceIndices(t *testing.T) {
	f := newTracerField(t)
	for _, alg := range []TracerAlgorithm{Sampling, Bresenham} {
		tracer, _ := NewTracer(f, alg)

		got := tracer.Trace(vec.Vec3{X: 0.5, Y: 0.5, Z: 0.5}, vec.Vec3{X: 0.5, Y: 0.5, Z: 1})
		for i, idx := range got {
			want, _ := f.FlatIndex(vec.UVec3{X: 50, Y: 50, Z: uint32(51 + i)})
			if idx != want {
				t.Fatalf("%v: index %d = %d, want %d", alg, i, idx, want)
			}
		}

		// reversed direction walks the same column downwards
		back := tracer.Trace(vec.Vec3{X: 0.5, Y: 0.5, Z: 0.995}, vec.Vec3{X: 0.5, Y: 0.5, Z: 0.505})
		if len(back) != 49 {
			t.Errorf("%v: reversed trace returned %d indices, want 49", alg, len(back))
		}
		if len(back) > 0 {
			first, _ := f.FlatIndex(vec.UVec3{X: 50, Y: 50, Z: 98})
			if back[0] != first {
				t.Errorf("%v: reversed trace starts at %d, want %d", alg, back[0], first)
			}
		}
	}
}

func TestTraceEntersFromOutside(t *testing.T) {
	f := newTracerField(t)
	for _, alg := range []TracerAlgorithm{Sampling, Bresenham} {
		tracer, _ := NewTracer(f, alg)

		// starting below the grid, every voxel of the column is entered
		got := tracer.Trace(vec.Vec3{X: 0.5, Y: 0.5, Z: -1}, vec.Vec3{X: 0.5, Y: 0.5, Z: 2})
		if len(got) != 100 {
			t.Errorf("%v: got %d indices, want 100", alg, len(got))
		}
	}
}

func TestWalkLineReachesEnd(t *testing.T) {
	var visited [][3]int64
	walkLine([3]int64{0, 0, 0}, [3]int64{5, -2, 3}, func(v [3]int64) {
		visited = append(visited, v)
	})
	if len(visited) != 6 {
		t.Fatalf("visited %d voxels, want 6", len(visited))
	}
	if last := visited[len(visited)-1]; last != [3]int64{5, -2, 3} {
		t.Errorf("line ends at %v", last)
	}
}

func TestNewTracerUnknownAlgorithm(t *testing.T) {
	_, err := NewTracer(newTracerField(t), TracerAlgorithm(7))
	if !lerrors.Is(err, lerrors.ErrNotSupported) {
		t.Errorf("expected NotSupported, got %v", err)
	}
	if TracerAlgorithm(7).String() != "TracerAlgorithm(7)" {
		t.Errorf("String() = %q", TracerAlgorithm(7).String())
	}
}

func TestFieldFlatIndex(t *testing.T) {
	f := newTracerField(t)
	idx, err := f.FlatIndex(vec.UVec3{X: 1, Y: 2, Z: 3})
	if err != nil {
		t.Fatalf("FlatIndex failed: %v", err)
	}
	if idx != 1+2*100+3*100*100 {
		t.Errorf("FlatIndex = %d", idx)
	}
	if _, err := f.FlatIndex(vec.UVec3{X: 100}); !lerrors.Is(err, lerrors.ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
}
