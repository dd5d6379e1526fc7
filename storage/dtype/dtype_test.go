package dtype

import (
	"errors"
	"sync"
	"testing"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// assertErrorCode 检查错误是否为指定的错误码
func assertErrorCode(t *testing.T, err error, code lerrors.ErrorCode, msg string) {
	t.Helper()
	if err == nil {
		t.Errorf("%s: expected error, got nil", msg)
		return
	}
	if !lerrors.Is(err, code) {
		t.Errorf("%s: expected error code %v, got %v (err=%v)",
			msg, code, lerrors.GetCode(err), err)
	}
}

func TestClassifyExactTable(t *testing.T) {
	tests := []struct {
		raw  string
		want DType
	}{
		{"float", Float},
		{"double", Double},
		{"int", Int},
		{"char", Char},
		{"uint64_t", UInt64},
		{"unsigned long long", UInt64},
		{"uint32_t", UInt32},
		{"unsigned long", UInt32},
		{"glm::vec2", Vec2},
		{"glm::vec3", Vec3},
		{"glm::vec4", Vec4},
		{"histogram", Hist},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Classify(tt.raw)
			if err != nil {
				t.Fatalf("Classify(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyAliasSpellings(t *testing.T) {
	a, _ := Classify("uint64_t")
	b, _ := Classify("unsigned long long")
	if a != b {
		t.Errorf("uint64 spellings differ: %v vs %v", a, b)
	}

	a, _ = Classify("uint32_t")
	b, _ = Classify("unsigned long")
	if a != b {
		t.Errorf("uint32 spellings differ: %v vs %v", a, b)
	}
}

func TestClassifyVectorTemplate(t *testing.T) {
	tests := []struct {
		raw  string
		want DType
	}{
		{"glm::vec<3,float,0>", Vec3},
		{"class glm::vec<3,float,0>", Vec3},
		{"struct glm::vec<3, float, (glm::qualifier)0>", Vec3},
		{"glm::vec<2, float, (glm::qualifier)0>", Vec2},
		{"class glm::vec<2,float,0>", Vec2},
		{"struct glm::vec< 2 , float >", Vec2},
		{"glm::vec<4,float,0>", Vec4},
		{"struct glm::vec<4, float, (glm::qualifier)0>", Vec4},
		// trailing template arguments are not validated
		{"glm::vec<3,floatgarbage", Vec3},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Classify(tt.raw)
			if err != nil {
				t.Fatalf("Classify(%q) failed: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestClassifyUnknown(t *testing.T) {
	inputs := []string{
		"totally_unknown_type",
		"",
		"Float",
		" float",
		"glm::vec<3,double,0>",
		"glm::vec<5,float,0>",
		"union glm::vec<3,float,0>",
		"struct class glm::vec<3,float,0>",
		"glm::ivec3",
		"Histogram",
	}

	for _, raw := range inputs {
		_, err := Classify(raw)
		assertErrorCode(t, err, lerrors.ErrUnknownType, "Classify("+raw+")")
		if !IsUnknownType(err) {
			t.Errorf("IsUnknownType(%v) = false", err)
		}
	}
}

func TestClassifyErrorCarriesInput(t *testing.T) {
	_, err := Classify("totally_unknown_type")
	var fe *lerrors.FieldError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FieldError, got %T", err)
	}
	if fe.Context["type_name"] != "totally_unknown_type" {
		t.Errorf("type_name context = %v", fe.Context["type_name"])
	}
	if !lerrors.IsFatal(err) {
		t.Error("unknown type should be fatal")
	}
}

func TestSizeOf(t *testing.T) {
	want := map[DType]int{
		Float:  4,
		Double: 8,
		Int:    4,
		Char:   1,
		UInt64: 8,
		UInt32: 4,
		Vec2:   8,
		Vec3:   12,
		Vec4:   16,
		Hist:   4,
	}

	for _, dt := range All() {
		got, err := SizeOf(dt)
		if err != nil {
			t.Fatalf("SizeOf(%v) failed: %v", dt, err)
		}
		if got != want[dt] {
			t.Errorf("SizeOf(%v) = %d, want %d", dt, got, want[dt])
		}
		if again := MustSizeOf(dt); again != got {
			t.Errorf("SizeOf(%v) not stable: %d then %d", dt, got, again)
		}
	}

	if MustSizeOf(Hist) != MustSizeOf(Float) {
		t.Error("histogram element size must equal float size")
	}
}

func TestSizeOfUnknownKind(t *testing.T) {
	_, err := SizeOf(DType(200))
	assertErrorCode(t, err, lerrors.ErrUnknownType, "SizeOf(200)")

	defer func() {
		if recover() == nil {
			t.Error("MustSizeOf should panic on unknown kind")
		}
	}()
	MustSizeOf(DType(numKinds))
}

func TestTypeNameRoundTrip(t *testing.T) {
	for _, dt := range All() {
		name, err := TypeName(dt)
		if err != nil {
			t.Fatalf("TypeName(%v) failed: %v", dt, err)
		}
		back, err := Classify(name)
		if err != nil {
			t.Fatalf("Classify(TypeName(%v)=%q) failed: %v", dt, name, err)
		}
		if back != dt {
			t.Errorf("Classify(%q) = %v, want %v", name, back, dt)
		}
	}

	_, err := TypeName(DType(numKinds))
	assertErrorCode(t, err, lerrors.ErrUnknownType, "TypeName(out of range)")
}

func TestString(t *testing.T) {
	if Vec3.String() != "vec3" {
		t.Errorf("Vec3.String() = %q", Vec3.String())
	}
	if s := DType(99).String(); s != "DType(99)" {
		t.Errorf("DType(99).String() = %q", s)
	}
	if len(All()) != 10 {
		t.Errorf("All() returned %d kinds", len(All()))
	}
}

func TestOf(t *testing.T) {
	checks := []struct {
		got, want DType
	}{
		{Of[float32](), Float},
		{Of[float64](), Double},
		{Of[int32](), Int},
		{Of[int8](), Char},
		{Of[uint8](), Char},
		{Of[uint64](), UInt64},
		{Of[uint32](), UInt32},
		{Of[vec.Vec2](), Vec2},
		{Of[vec.Vec3](), Vec3},
		{Of[vec.Vec4](), Vec4},
	}
	for i, c := range checks {
		if c.got != c.want {
			t.Errorf("case %d: Of = %v, want %v", i, c.got, c.want)
		}
	}
}

func TestClassifyConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if dt, err := Classify("struct glm::vec<4, float, (glm::qualifier)0>"); err != nil || dt != Vec4 {
					t.Errorf("concurrent Classify = %v, %v", dt, err)
					return
				}
				if _, err := Classify("nope"); err == nil {
					t.Error("concurrent Classify accepted unknown tag")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestComponentSize(t *testing.T) {
	for _, dt := range All() {
		comp, err := ComponentSize(dt)
		if err != nil {
			t.Fatalf("ComponentSize(%v) failed: %v", dt, err)
		}
		if MustSizeOf(dt)%comp != 0 {
			t.Errorf("%v: element size %d is not a multiple of component size %d", dt, MustSizeOf(dt), comp)
		}
	}
	if n, _ := ComponentSize(Vec3); n != 4 {
		t.Errorf("ComponentSize(Vec3) = %d, want 4", n)
	}
	_, err := ComponentSize(DType(numKinds))
	assertErrorCode(t, err, lerrors.ErrUnknownType, "ComponentSize(numKinds)")
}
