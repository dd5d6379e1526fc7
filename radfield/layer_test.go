package radfield

import (
	"errors"
	"sync"
	"testing"

	"github.com/wzqhbustb/radfield/storage/dtype"
	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

func newTestLayer(t *testing.T, dt dtype.DType) *Layer {
	t.Helper()
	f := newTestField(t)
	ch, _ := f.AddChannel("c")
	l, err := ch.AddLayer("l", "u", dt)
	if err != nil {
		t.Fatalf("AddLayer failed: %v", err)
	}
	return l
}

func TestScalarVoxelAccess(t *testing.T) {
	l := newTestLayer(t, dtype.Float)

	if err := SetVoxel(l, 0, 0, 0, float32(1.0)); err != nil {
		t.Fatalf("SetVoxel failed: %v", err)
	}
	if err := SetVoxel(l, 19, 19, 19, float32(-2.5)); err != nil {
		t.Fatalf("SetVoxel failed: %v", err)
	}

	v, err := GetVoxel[float32](l, 0, 0, 0)
	if err != nil || v != 1.0 {
		t.Errorf("GetVoxel(0,0,0) = %v, %v", v, err)
	}
	v, _ = GetVoxelAt[float32](l, l.NumVoxels()-1)
	if v != -2.5 {
		t.Errorf("last voxel = %v, want -2.5", v)
	}
	v, _ = GetVoxel[float32](l, 1, 0, 0)
	if v != 0 {
		t.Errorf("untouched voxel = %v, want 0", v)
	}
}

func TestFlatIndexOrder(t *testing.T) {
	l := newTestLayer(t, dtype.Int)

	idx, err := l.FlatIndex(1, 2, 3)
	if err != nil {
		t.Fatalf("FlatIndex failed: %v", err)
	}
	if want := uint64(1 + 2*20 + 3*400); idx != want {
		t.Errorf("FlatIndex = %d, want %d", idx, want)
	}

	if _, err := l.FlatIndex(20, 0, 0); !lerrors.Is(err, lerrors.ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
	if _, err := GetVoxelAt[int32](l, 8000); !lerrors.Is(err, lerrors.ErrOutOfBounds) {
		t.Errorf("expected OutOfBounds, got %v", err)
	}
}

func TestEveryElementKind(t *testing.T) {
	check := func(t *testing.T, name string, ok bool) {
		t.Helper()
		if !ok {
			t.Errorf("%s: value did not survive set/get", name)
		}
	}

	t.Run("double", func(t *testing.T) {
		l := newTestLayer(t, dtype.Double)
		SetVoxel(l, 3, 4, 5, 1e300)
		v, _ := GetVoxel[float64](l, 3, 4, 5)
		check(t, "double", v == 1e300)
	})
	t.Run("int", func(t *testing.T) {
		l := newTestLayer(t, dtype.Int)
		SetVoxel(l, 3, 4, 5, int32(-123456))
		v, _ := GetVoxel[int32](l, 3, 4, 5)
		check(t, "int", v == -123456)
	})
	t.Run("char", func(t *testing.T) {
		l := newTestLayer(t, dtype.Char)
		SetVoxel(l, 3, 4, 5, int8(-7))
		v, _ := GetVoxel[int8](l, 3, 4, 5)
		check(t, "char", v == -7)
		u, _ := GetVoxel[uint8](l, 3, 4, 5)
		check(t, "char as byte", u == 249)
	})
	t.Run("uint64", func(t *testing.T) {
		l := newTestLayer(t, dtype.UInt64)
		SetVoxel(l, 3, 4, 5, uint64(1<<63+5))
		v, _ := GetVoxel[uint64](l, 3, 4, 5)
		check(t, "uint64", v == 1<<63+5)
	})
	t.Run("uint32", func(t *testing.T) {
		l := newTestLayer(t, dtype.UInt32)
		SetVoxel(l, 3, 4, 5, uint32(0xDEADBEEF))
		v, _ := GetVoxel[uint32](l, 3, 4, 5)
		check(t, "uint32", v == 0xDEADBEEF)
	})
	t.Run("vec2", func(t *testing.T) {
		l := newTestLayer(t, dtype.Vec2)
		SetVoxel(l, 3, 4, 5, vec.Vec2{X: 1, Y: 2})
		v, _ := GetVoxel[vec.Vec2](l, 3, 4, 5)
		check(t, "vec2", v == vec.Vec2{X: 1, Y: 2})
	})
	t.Run("vec3", func(t *testing.T) {
		l := newTestLayer(t, dtype.Vec3)
		SetVoxel(l, 3, 4, 5, vec.Vec3{X: 1, Y: 2, Z: 3})
		v, _ := GetVoxel[vec.Vec3](l, 3, 4, 5)
		check(t, "vec3", v == vec.Vec3{X: 1, Y: 2, Z: 3})
	})
	t.Run("vec4", func(t *testing.T) {
		l := newTestLayer(t, dtype.Vec4)
		SetVoxel(l, 3, 4, 5, vec.Vec4{X: 1, Y: 2, Z: 3, W: 4})
		v, _ := GetVoxel[vec.Vec4](l, 3, 4, 5)
		check(t, "vec4", v == vec.Vec4{X: 1, Y: 2, Z: 3, W: 4})
	})
}

func TestVoxelTypeMismatch(t *testing.T) {
	l := newTestLayer(t, dtype.Float)

	if err := SetVoxel(l, 0, 0, 0, float64(1)); !lerrors.Is(err, lerrors.ErrTypeMismatch) {
		t.Errorf("SetVoxel float64 on float layer: expected TypeMismatch, got %v", err)
	}
	if _, err := GetVoxel[vec.Vec3](l, 0, 0, 0); !lerrors.Is(err, lerrors.ErrTypeMismatch) {
		t.Errorf("GetVoxel vec3 on float layer: expected TypeMismatch, got %v", err)
	}
	if _, err := l.Histogram(0, 0, 0); !errors.Is(err, ErrHistogramLayer) {
		t.Errorf("Histogram on float layer: expected ErrHistogramLayer, got %v", err)
	}
}

func TestFillAndValues(t *testing.T) {
	l := newTestLayer(t, dtype.Vec3)
	want := vec.Vec3{X: 0, Y: 0, Z: 1}

	if err := Fill(l, want); err != nil {
		t.Fatalf("Fill failed: %v", err)
	}
	values, err := Values[vec.Vec3](l)
	if err != nil {
		t.Fatalf("Values failed: %v", err)
	}
	if len(values) != 8000 {
		t.Fatalf("Values returned %d entries", len(values))
	}
	for i, v := range values {
		if v != want {
			t.Fatalf("voxel %d = %v, want %v", i, v, want)
		}
	}
}

func TestHistogramLayer(t *testing.T) {
	f := newTestField(t)
	ch, _ := f.AddChannel("scattering")

	l, err := ch.AddHistogramLayer("spectrum", "Gy", 16)
	if err != nil {
		t.Fatalf("AddHistogramLayer failed: %v", err)
	}
	if l.DType() != dtype.Hist || l.Bins() != 16 {
		t.Errorf("layer = %v with %d bins", l.DType(), l.Bins())
	}
	if l.VoxelSize() != 16*dtype.MustSizeOf(dtype.Float) {
		t.Errorf("VoxelSize = %d", l.VoxelSize())
	}

	bins := make([]float32, 16)
	for i := range bins {
		bins[i] = float32(i) * 0.5
	}
	if err := l.SetHistogram(1, 2, 3, bins); err != nil {
		t.Fatalf("SetHistogram failed: %v", err)
	}
	got, err := l.Histogram(1, 2, 3)
	if err != nil {
		t.Fatalf("Histogram failed: %v", err)
	}
	for i := range bins {
		if got[i] != bins[i] {
			t.Fatalf("bin %d = %v, want %v", i, got[i], bins[i])
		}
	}

	if err := l.SetHistogram(0, 0, 0, bins[:3]); !lerrors.Is(err, lerrors.ErrInvalidArgument) {
		t.Errorf("short histogram: expected InvalidArgument, got %v", err)
	}
	if _, err := GetVoxel[float32](l, 0, 0, 0); !errors.Is(err, ErrHistogramLayer) {
		t.Errorf("scalar access on histogram: expected ErrHistogramLayer, got %v", err)
	}
	if _, err := ch.AddHistogramLayer("empty", "", 0); !lerrors.Is(err, lerrors.ErrInvalidArgument) {
		t.Errorf("zero bins: expected InvalidArgument, got %v", err)
	}
}

func TestSetBytes(t *testing.T) {
	l := newTestLayer(t, dtype.Char)
	raw := make([]byte, 8000)
	raw[42] = 7

	if err := l.SetBytes(raw); err != nil {
		t.Fatalf("SetBytes failed: %v", err)
	}
	if v, _ := GetVoxelAt[uint8](l, 42); v != 7 {
		t.Errorf("voxel 42 = %d, want 7", v)
	}
	if err := l.SetBytes(raw[:10]); !lerrors.Is(err, lerrors.ErrInvalidArgument) {
		t.Errorf("short buffer: expected InvalidArgument, got %v", err)
	}
}

func TestConcurrentVoxelAccess(t *testing.T) {
	l := newTestLayer(t, dtype.UInt64)

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := uint64(w); i < l.NumVoxels(); i += 8 {
				if err := SetVoxelAt(l, i, i); err != nil {
					t.Errorf("SetVoxelAt(%d) failed: %v", i, err)
					return
				}
				if _, err := GetVoxelAt[uint64](l, (i+1)%l.NumVoxels()); err != nil {
					t.Errorf("GetVoxelAt failed: %v", err)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	values, _ := Values[uint64](l)
	for i, v := range values {
		if v != uint64(i) {
			t.Fatalf("voxel %d = %d", i, v)
		}
	}
}
