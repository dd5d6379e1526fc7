package dtype

import "github.com/wzqhbustb/radfield/storage/vec"

// Element is the set of Go types that back a voxel element kind.
type Element interface {
	float32 | float64 | int32 | int8 | uint8 | uint64 | uint32 | vec.Vec2 | vec.Vec3 | vec.Vec4
}

// Of returns the kind stored by Go type T. Histograms are never inferred;
// their buckets are plain float32 values.
func Of[T Element]() DType {
	var zero T
	switch any(zero).(type) {
	case float32:
		return Float
	case float64:
		return Double
	case int32:
		return Int
	case int8, uint8:
		return Char
	case uint64:
		return UInt64
	case uint32:
		return UInt32
	case vec.Vec2:
		return Vec2
	case vec.Vec3:
		return Vec3
	default:
		return Vec4
	}
}
