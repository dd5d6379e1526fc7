// Package vec holds the small fixed-size vector values stored in voxel layers
// and used to describe field geometry.
package vec

import "math/bits"

// Vec2 is a packed 2-component float32 vector.
type Vec2 struct {
	X, Y float32
}

func (v Vec2) Add(o Vec2) Vec2        { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2        { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float32) Vec2   { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Div(s float32) Vec2     { return Vec2{v.X / s, v.Y / s} }
func (v Vec2) Components() [2]float32 { return [2]float32{v.X, v.Y} }

// Vec3 is a packed 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

func (v Vec3) Add(o Vec3) Vec3        { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3        { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float32) Vec3   { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Div(s float32) Vec3     { return Vec3{v.X / s, v.Y / s, v.Z / s} }
func (v Vec3) Components() [3]float32 { return [3]float32{v.X, v.Y, v.Z} }

// Vec4 is a packed 4-component float32 vector.
type Vec4 struct {
	X, Y, Z, W float32
}

func (v Vec4) Add(o Vec4) Vec4 {
	return Vec4{v.X + o.X, v.Y + o.Y, v.Z + o.Z, v.W + o.W}
}
func (v Vec4) Sub(o Vec4) Vec4 {
	return Vec4{v.X - o.X, v.Y - o.Y, v.Z - o.Z, v.W - o.W}
}
func (v Vec4) Scale(s float32) Vec4   { return Vec4{v.X * s, v.Y * s, v.Z * s, v.W * s} }
func (v Vec4) Div(s float32) Vec4     { return Vec4{v.X / s, v.Y / s, v.Z / s, v.W / s} }
func (v Vec4) Components() [4]float32 { return [4]float32{v.X, v.Y, v.Z, v.W} }

// UVec3 is an unsigned integer 3-component vector, used for voxel indices
// and grid extents. Div truncates.
type UVec3 struct {
	X, Y, Z uint32
}

func (v UVec3) Add(o UVec3) UVec3    { return UVec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v UVec3) Sub(o UVec3) UVec3    { return UVec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v UVec3) Scale(s uint32) UVec3 { return UVec3{v.X * s, v.Y * s, v.Z * s} }
func (v UVec3) Div(s uint32) UVec3   { return UVec3{v.X / s, v.Y / s, v.Z / s} }

// Volume returns X*Y*Z as a uint64. The product wraps for extents beyond
// 2^64; use CheckedVolume on untrusted input.
func (v UVec3) Volume() uint64 {
	return uint64(v.X) * uint64(v.Y) * uint64(v.Z)
}

// CheckedVolume returns X*Y*Z and false if the product overflows uint64.
func (v UVec3) CheckedVolume() (uint64, bool) {
	hi, xy := bits.Mul64(uint64(v.X), uint64(v.Y))
	if hi != 0 {
		return 0, false
	}
	hi, xyz := bits.Mul64(xy, uint64(v.Z))
	if hi != 0 {
		return 0, false
	}
	return xyz, true
}
