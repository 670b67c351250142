package math

import (
	"errors"
	"fmt"
)

// ErrSingularCalibration is returned when the source points of an affine
// correspondence do not span a 3D frame.
var ErrSingularCalibration = errors.New("singular calibration: source points do not span an invertible frame")

// homogeneous stacks four points as columns with a trailing row of ones.
func homogeneous(p [4]Vec3) Mat4 {
	col := func(v Vec3) Vec4 { return Vec4{v.X, v.Y, v.Z, 1} }
	return FromColumns(col(p[0]), col(p[1]), col(p[2]), col(p[3]))
}

// SolveAffine returns the 4x4 transform M with M·[src[i];1] = [dst[i];1]
// for all four correspondences, computed as M = Y·X⁻¹ where X and Y are
// the homogeneous column stacks of src and dst.
func SolveAffine(src, dst [4]Vec3) (Mat4, error) {
	x := homogeneous(src)
	inv, err := x.Inverse()
	if err != nil {
		return Mat4{}, fmt.Errorf("%w: %v %v %v %v (det=%g)",
			ErrSingularCalibration, src[0], src[1], src[2], src[3], x.Determinant())
	}
	return homogeneous(dst).Mul(inv), nil
}
