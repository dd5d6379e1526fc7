// Package dtype maps the textual type tags stored in field files to the
// closed set of voxel element kinds, and reports the byte size of each kind.
//
// Type tags were historically produced by a compiler's type-name facility,
// so the same kind may be spelled differently depending on the platform
// that wrote the file. All spellings accepted on read live in this package.
package dtype

import (
	"fmt"
	"strings"
	"unicode"
	"unsafe"

	lerrors "github.com/wzqhbustb/radfield/storage/errors"
	"github.com/wzqhbustb/radfield/storage/vec"
)

// DType is an enum of supported voxel element kinds
type DType uint8

const (
	Float DType = iota
	Double
	Int
	Char
	UInt64
	UInt32
	Vec2
	Vec3
	Vec4
	Hist
)

// numKinds must follow the last kind
const numKinds = int(Hist) + 1

// HistogramTag is the literal tag of histogram layers.
const HistogramTag = "histogram"

const (
	vecTemplatePrefix = "glm::vec<"
	structQualifier   = "struct "
	classQualifier    = "class "
)

// plainTypeNames is the exact-match table. uint64/uint32 carry two spellings
// each because the alias resolves differently across platforms.
var plainTypeNames = map[string]DType{
	"float":              Float,
	"double":             Double,
	"int":                Int,
	"char":               Char,
	"uint64_t":           UInt64,
	"unsigned long long": UInt64,
	"uint32_t":           UInt32,
	"unsigned long":      UInt32,
	"glm::vec3":          Vec3,
	"glm::vec2":          Vec2,
	"glm::vec4":          Vec4,
}

// canonicalTags is what this implementation writes; each entry classifies
// back to its own kind.
var canonicalTags = [numKinds]string{
	Float:  "float",
	Double: "double",
	Int:    "int",
	Char:   "char",
	UInt64: "uint64_t",
	UInt32: "uint32_t",
	Vec2:   "glm::vec2",
	Vec3:   "glm::vec3",
	Vec4:   "glm::vec4",
	Hist:   HistogramTag,
}

var kindNames = [numKinds]string{
	Float:  "float32",
	Double: "float64",
	Int:    "int32",
	Char:   "char",
	UInt64: "uint64",
	UInt32: "uint32",
	Vec2:   "vec2",
	Vec3:   "vec3",
	Vec4:   "vec4",
	Hist:   "histogram",
}

// kindSizes holds the native size of the Go type backing each kind. A
// histogram element is one bucket weight.
var kindSizes = [numKinds]int{
	Float:  int(unsafe.Sizeof(float32(0))),
	Double: int(unsafe.Sizeof(float64(0))),
	Int:    int(unsafe.Sizeof(int32(0))),
	Char:   int(unsafe.Sizeof(int8(0))),
	UInt64: int(unsafe.Sizeof(uint64(0))),
	UInt32: int(unsafe.Sizeof(uint32(0))),
	Vec2:   int(unsafe.Sizeof(vec.Vec2{})),
	Vec3:   int(unsafe.Sizeof(vec.Vec3{})),
	Vec4:   int(unsafe.Sizeof(vec.Vec4{})),
	Hist:   int(unsafe.Sizeof(float32(0))),
}

// componentSizes is the width of the scalar a kind is made of.
var componentSizes = [numKinds]int{
	Float:  4,
	Double: 8,
	Int:    4,
	Char:   1,
	UInt64: 8,
	UInt32: 4,
	Vec2:   4,
	Vec3:   4,
	Vec4:   4,
	Hist:   4,
}

// Classify resolves a raw type tag to its kind.
//
// Exact spellings are tried first, then the histogram literal. Anything else
// is parsed as a possibly qualified vector template ("struct glm::vec<3, float, ...>"),
// accepting the 2, 3 and 4 component float forms. Only the leading
// "<n>,float" of the template arguments is checked.
func Classify(raw string) (DType, error) {
	if dt, ok := plainTypeNames[raw]; ok {
		return dt, nil
	}
	if raw == HistogramTag {
		return Hist, nil
	}
	if dt, ok := classifyVecTemplate(raw); ok {
		return dt, nil
	}
	return 0, lerrors.UnknownType("classify_dtype", raw)
}

func classifyVecTemplate(raw string) (DType, bool) {
	name := raw
	if strings.HasPrefix(name, structQualifier) {
		name = name[len(structQualifier):]
	} else if strings.HasPrefix(name, classQualifier) {
		name = name[len(classQualifier):]
	}

	args, ok := strings.CutPrefix(name, vecTemplatePrefix)
	if !ok {
		return 0, false
	}
	args = stripSpace(args)

	switch {
	case strings.HasPrefix(args, "3,float"):
		return Vec3, true
	case strings.HasPrefix(args, "2,float"):
		return Vec2, true
	case strings.HasPrefix(args, "4,float"):
		return Vec4, true
	}
	return 0, false
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// SizeOf returns the storage size in bytes of one element of the given kind.
func SizeOf(dt DType) (int, error) {
	if !dt.Valid() {
		return 0, lerrors.UnknownType("dtype_size", dt.String())
	}
	return kindSizes[dt], nil
}

// MustSizeOf is like SizeOf but panics on an unknown kind.
func MustSizeOf(dt DType) int {
	n, err := SizeOf(dt)
	if err != nil {
		panic(err)
	}
	return n
}

// ComponentSize returns the size of the scalar component of a kind: 4 for
// the float vectors and histograms, otherwise the element size.
func ComponentSize(dt DType) (int, error) {
	if !dt.Valid() {
		return 0, lerrors.UnknownType("dtype_component_size", dt.String())
	}
	return componentSizes[dt], nil
}

// TypeName returns the canonical tag written to disk for the kind.
func TypeName(dt DType) (string, error) {
	if !dt.Valid() {
		return "", lerrors.UnknownType("dtype_name", dt.String())
	}
	return canonicalTags[dt], nil
}

// Valid reports whether dt is one of the declared kinds.
func (dt DType) Valid() bool {
	return int(dt) < numKinds
}

func (dt DType) String() string {
	if !dt.Valid() {
		return fmt.Sprintf("DType(%d)", uint8(dt))
	}
	return kindNames[dt]
}

// All returns every kind in declaration order.
func All() []DType {
	kinds := make([]DType, numKinds)
	for i := range kinds {
		kinds[i] = DType(i)
	}
	return kinds
}

// IsUnknownType reports whether err stems from an unresolvable type tag.
func IsUnknownType(err error) bool {
	return lerrors.Is(err, lerrors.ErrUnknownType)
}
