package kinematics

import (
	"fmt"

	"github.com/pkg/errors"
)

// Sentinel errors for the failure modes of chain construction and evaluation.
// Callers match them with errors.Is; the constructors below attach context.
var (
	// ErrInvalidParameterShape means a parameter table or Jacobian had the
	// wrong dimensions.
	ErrInvalidParameterShape = errors.New("invalid parameter shape")
	// ErrUnsupportedJointType means a joint type tag was neither revolute nor
	// prismatic.
	ErrUnsupportedJointType = errors.New("unsupported joint type")
	// ErrDimensionMismatch means a configuration or velocity vector had the
	// wrong length for the chain.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrIndexOutOfRange means a link or segment bound was outside the chain.
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrFrameNotUnit means a base, effector, or fixed transform was not a
	// unit dual quaternion.
	ErrFrameNotUnit = errors.New("frame is not a unit dual quaternion")
)

// NewInvalidParameterShapeError returns an error for a parameter table that is
// not 5xn.
func NewInvalidParameterShapeError(rows, cols int) error {
	return fmt.Errorf("%w: parameter table must be 5xn with rows [theta; d; a; alpha; type], got %dx%d",
		ErrInvalidParameterShape, rows, cols)
}

// NewUnsupportedJointTypeError returns an error for a bad numeric type tag in
// column col of a parameter table.
func NewUnsupportedJointTypeError(col int, tag float64) error {
	return fmt.Errorf("%w: joint %d has type tag %v, want %d (revolute) or %d (prismatic)",
		ErrUnsupportedJointType, col, tag, Revolute, Prismatic)
}

// NewDimensionMismatchError returns an error for a vector of length got where
// the chain wanted length want.
func NewDimensionMismatchError(got, want int) error {
	return fmt.Errorf("%w: given vector length %d does not match %d", ErrDimensionMismatch, got, want)
}

// NewIndexOutOfRangeError returns an error for an index i outside [lo, hi].
func NewIndexOutOfRangeError(i, lo, hi int) error {
	return fmt.Errorf("%w: %d not in [%d, %d]", ErrIndexOutOfRange, i, lo, hi)
}

func newFrameNotUnitError(which string) error {
	return fmt.Errorf("%w: %s", ErrFrameNotUnit, which)
}
