package kinematics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// JointType tags a joint as revolute or prismatic. The numeric values are part
// of the parameter-table format: the fifth row of a 5xn table holds them.
type JointType int

// The supported joint variants.
const (
	Revolute  JointType = 1
	Prismatic JointType = 2
)

func (jt JointType) String() string {
	switch jt {
	case Revolute:
		return "revolute"
	case Prismatic:
		return "prismatic"
	default:
		return fmt.Sprintf("JointType(%d)", int(jt))
	}
}

// Joint holds one column of a DH or MDH parameter table. Angles are radians,
// offsets meters. The joint variable q displaces Theta for revolute joints and
// D for prismatic ones.
type Joint struct {
	Theta float64
	D     float64
	A     float64
	Alpha float64
	Type  JointType
}

// Limit is the allowed range of one configuration variable, in radians for
// revolute joints and meters for prismatic ones.
type Limit struct {
	Min float64
	Max float64
}

func unlimited() Limit {
	return Limit{Min: math.Inf(-1), Max: math.Inf(1)}
}

// JointsFromTable converts a 5xn parameter table with rows
// [theta; d; a; alpha; type] into joints, one per column. Type tags must be
// exactly 1 (revolute) or 2 (prismatic).
func JointsFromTable(table mat.Matrix) ([]Joint, error) {
	rows, cols := table.Dims()
	if rows != 5 || cols < 1 {
		return nil, NewInvalidParameterShapeError(rows, cols)
	}
	joints := make([]Joint, 0, cols)
	for i := 0; i < cols; i++ {
		var jt JointType
		switch tag := table.At(4, i); tag {
		case float64(Revolute):
			jt = Revolute
		case float64(Prismatic):
			jt = Prismatic
		default:
			return nil, NewUnsupportedJointTypeError(i, tag)
		}
		joints = append(joints, Joint{
			Theta: table.At(0, i),
			D:     table.At(1, i),
			A:     table.At(2, i),
			Alpha: table.At(3, i),
			Type:  jt,
		})
	}
	return joints, nil
}
