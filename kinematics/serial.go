package kinematics

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

// SerialManipulator is an open kinematic chain of revolute and prismatic
// joints described by a DH or MDH parameter table, with optional base and
// effector frames composed around the raw chain.
type SerialManipulator struct {
	name       string
	convention Convention
	joints     []Joint
	limits     []Limit
	base       dualquat.Number
	effector   dualquat.Number
}

// NewSerialManipulator builds a manipulator from a 5xn parameter table with
// rows [theta; d; a; alpha; type] in the given convention.
func NewSerialManipulator(c Convention, table mat.Matrix) (*SerialManipulator, error) {
	joints, err := JointsFromTable(table)
	if err != nil {
		return nil, err
	}
	return NewSerialManipulatorFromJoints(c, joints)
}

// NewSerialManipulatorFromJoints builds a manipulator from already-parsed
// joints. There must be at least one, and every joint type must be supported.
func NewSerialManipulatorFromJoints(c Convention, joints []Joint) (*SerialManipulator, error) {
	if len(joints) == 0 {
		return nil, NewInvalidParameterShapeError(5, 0)
	}
	limits := make([]Limit, 0, len(joints))
	for i, j := range joints {
		if j.Type != Revolute && j.Type != Prismatic {
			return nil, NewUnsupportedJointTypeError(i, float64(j.Type))
		}
		limits = append(limits, unlimited())
	}
	return &SerialManipulator{
		convention: c,
		joints:     append([]Joint{}, joints...),
		limits:     limits,
		base:       dqmath.Identity(),
		effector:   dqmath.Identity(),
	}, nil
}

// Name returns the manipulator's name.
func (m *SerialManipulator) Name() string { return m.name }

// SetName sets the manipulator's name.
func (m *SerialManipulator) SetName(name string) { m.name = name }

// Convention returns the parameterization variant in use.
func (m *SerialManipulator) Convention() Convention { return m.convention }

// DoF returns the number of joints.
func (m *SerialManipulator) DoF() int { return len(m.joints) }

// Joints returns a copy of the joint parameters.
func (m *SerialManipulator) Joints() []Joint { return append([]Joint{}, m.joints...) }

// Limits returns a copy of the per-joint configuration ranges.
func (m *SerialManipulator) Limits() []Limit { return append([]Limit{}, m.limits...) }

// SetLimits replaces the per-joint configuration ranges.
func (m *SerialManipulator) SetLimits(limits []Limit) error {
	if len(limits) != len(m.joints) {
		return NewDimensionMismatchError(len(limits), len(m.joints))
	}
	m.limits = append([]Limit{}, limits...)
	return nil
}

// BaseFrame returns the frame the chain starts from.
func (m *SerialManipulator) BaseFrame() dualquat.Number { return m.base }

// SetBaseFrame replaces the frame the chain starts from.
func (m *SerialManipulator) SetBaseFrame(x dualquat.Number) error {
	if !dqmath.IsUnit(x, unitTol) {
		return newFrameNotUnitError("base frame")
	}
	m.base = x
	return nil
}

// EffectorFrame returns the tool frame composed after the last link.
func (m *SerialManipulator) EffectorFrame() dualquat.Number { return m.effector }

// SetEffectorFrame replaces the tool frame composed after the last link.
func (m *SerialManipulator) SetEffectorFrame(x dualquat.Number) error {
	if !dqmath.IsUnit(x, unitTol) {
		return newFrameNotUnitError("effector frame")
	}
	m.effector = x
	return nil
}

// LinkTransform returns the transform of joint i (0-based) displaced by q.
func (m *SerialManipulator) LinkTransform(q float64, i int) (dualquat.Number, error) {
	if i < 0 || i >= len(m.joints) {
		return dualquat.Number{}, NewIndexOutOfRangeError(i, 0, len(m.joints)-1)
	}
	return m.convention.LinkTransform(m.joints[i], q), nil
}

// checkBound validates a link count bound and the configuration prefix it
// consumes. Bounded operations accept any configuration from the bound's
// prefix up to the full chain.
func (m *SerialManipulator) checkBound(q []float64, upTo int) error {
	n := len(m.joints)
	if upTo < 1 || upTo > n {
		return NewIndexOutOfRangeError(upTo, 1, n)
	}
	if len(q) < upTo {
		return NewDimensionMismatchError(len(q), upTo)
	}
	if len(q) > n {
		return NewDimensionMismatchError(len(q), n)
	}
	return nil
}

// rawFKMTo assumes bounds were already checked.
func (m *SerialManipulator) rawFKMTo(q []float64, upTo int) dualquat.Number {
	x := dqmath.Identity()
	for i := 0; i < upTo; i++ {
		x = dualquat.Mul(x, m.convention.LinkTransform(m.joints[i], q[i]))
	}
	return x
}

// RawFKM returns the product of all link transforms, without the base and
// effector frames.
func (m *SerialManipulator) RawFKM(q []float64) (dualquat.Number, error) {
	if len(q) != len(m.joints) {
		return dualquat.Number{}, NewDimensionMismatchError(len(q), len(m.joints))
	}
	return m.rawFKMTo(q, len(m.joints)), nil
}

// RawFKMTo returns the product of the first upTo link transforms.
func (m *SerialManipulator) RawFKMTo(q []float64, upTo int) (dualquat.Number, error) {
	if err := m.checkBound(q, upTo); err != nil {
		return dualquat.Number{}, err
	}
	return m.rawFKMTo(q, upTo), nil
}

// FKM returns the pose of the effector at configuration q, with the base and
// effector frames composed around the link product.
func (m *SerialManipulator) FKM(q []float64) (dualquat.Number, error) {
	raw, err := m.RawFKM(q)
	if err != nil {
		return dualquat.Number{}, err
	}
	return dualquat.Mul(dualquat.Mul(m.base, raw), m.effector), nil
}

// FKMTo returns the framed pose after the first upTo links. The effector frame
// takes part only when upTo reaches the end of the chain, so FKMTo(q, DoF())
// equals FKM(q).
func (m *SerialManipulator) FKMTo(q []float64, upTo int) (dualquat.Number, error) {
	raw, err := m.RawFKMTo(q, upTo)
	if err != nil {
		return dualquat.Number{}, err
	}
	x := dualquat.Mul(m.base, raw)
	if upTo == len(m.joints) {
		x = dualquat.Mul(x, m.effector)
	}
	return x, nil
}

// CheckLimits reports every joint of q outside its configured range.
func (m *SerialManipulator) CheckLimits(q []float64) error {
	if len(q) != len(m.joints) {
		return NewDimensionMismatchError(len(q), len(m.joints))
	}
	var errs error
	for i, l := range m.limits {
		if q[i] < l.Min || q[i] > l.Max {
			errs = multierr.Append(errs,
				errors.Errorf("joint %d value %v out of range [%v, %v]", i, q[i], l.Min, l.Max))
		}
	}
	return errs
}

// LinkPoses returns the framed pose at the base and after each link, with the
// effector frame folded into the final pose.
func (m *SerialManipulator) LinkPoses(q []float64) ([]dualquat.Number, error) {
	if len(q) != len(m.joints) {
		return nil, NewDimensionMismatchError(len(q), len(m.joints))
	}
	poses := make([]dualquat.Number, 0, len(m.joints)+1)
	x := m.base
	poses = append(poses, x)
	for i, j := range m.joints {
		x = dualquat.Mul(x, m.convention.LinkTransform(j, q[i]))
		if i == len(m.joints)-1 {
			x = dualquat.Mul(x, m.effector)
		}
		poses = append(poses, x)
	}
	return poses, nil
}
