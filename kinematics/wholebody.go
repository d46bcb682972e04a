package kinematics

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/dualquat"

	"github.com/viam-labs/dqkinematics/dqmath"
)

// wholeBodyEntry is one element of a whole body: either a kinematic segment or
// a fixed rigid transform joining neighboring segments.
type wholeBodyEntry struct {
	segment Chain
	fixed   dualquat.Number
	isFixed bool
}

// WholeBody composes heterogeneous kinematic segments, such as serial
// manipulators and mobile bases, into one chain. Configurations are
// partitioned across the segments in order, and the whole-body pose is the
// ordered product of the segment poses. A WholeBody is itself a Chain, so
// whole bodies nest.
type WholeBody struct {
	name    string
	entries []wholeBodyEntry
}

// effectorSetter is satisfied by segments carrying a tool frame.
type effectorSetter interface {
	SetEffectorFrame(x dualquat.Number) error
}

// NewWholeBody builds a whole body starting from its first segment.
func NewWholeBody(name string, first Chain) (*WholeBody, error) {
	wb := &WholeBody{name: name}
	if err := wb.Append(first); err != nil {
		return nil, err
	}
	return wb, nil
}

// Append adds a segment to the end of the whole body.
func (wb *WholeBody) Append(segment Chain) error {
	if segment == nil {
		return errors.New("cannot append a nil segment")
	}
	wb.entries = append(wb.entries, wholeBodyEntry{segment: segment})
	return nil
}

// AppendFixedTransform adds a rigid transform to the end of the whole body,
// typically the mount between two segments.
func (wb *WholeBody) AppendFixedTransform(x dualquat.Number) error {
	if !dqmath.IsUnit(x, unitTol) {
		return newFrameNotUnitError("fixed transform")
	}
	wb.entries = append(wb.entries, wholeBodyEntry{fixed: x, isFixed: true})
	return nil
}

// Name returns the whole body's name.
func (wb *WholeBody) Name() string { return wb.name }

// NumSegments returns the number of entries, counting fixed transforms.
func (wb *WholeBody) NumSegments() int { return len(wb.entries) }

// Segment returns entry i when it is a kinematic segment.
func (wb *WholeBody) Segment(i int) (Chain, error) {
	if i < 0 || i >= len(wb.entries) {
		return nil, NewIndexOutOfRangeError(i, 0, len(wb.entries)-1)
	}
	if wb.entries[i].isFixed {
		return nil, errors.Errorf("entry %d is a fixed transform, not a segment", i)
	}
	return wb.entries[i].segment, nil
}

// DoF returns the total configuration-space dimension across all segments.
func (wb *WholeBody) DoF() int {
	total := 0
	for _, e := range wb.entries {
		if !e.isFixed {
			total += e.segment.DoF()
		}
	}
	return total
}

// Limits returns the segment limits concatenated in order.
func (wb *WholeBody) Limits() []Limit {
	limits := make([]Limit, 0, wb.DoF())
	for _, e := range wb.entries {
		if !e.isFixed {
			limits = append(limits, e.segment.Limits()...)
		}
	}
	return limits
}

// FKM returns the product of all entry poses, consuming q segment by segment.
func (wb *WholeBody) FKM(q []float64) (dualquat.Number, error) {
	return wb.FKMTo(q, len(wb.entries))
}

// FKMTo returns the product of the first upTo entry poses. The configuration
// must cover at least the segments among them and be no longer than the whole
// body's DoF.
func (wb *WholeBody) FKMTo(q []float64, upTo int) (dualquat.Number, error) {
	if upTo < 1 || upTo > len(wb.entries) {
		return dualquat.Number{}, NewIndexOutOfRangeError(upTo, 1, len(wb.entries))
	}
	need := 0
	for _, e := range wb.entries[:upTo] {
		if !e.isFixed {
			need += e.segment.DoF()
		}
	}
	if len(q) < need {
		return dualquat.Number{}, NewDimensionMismatchError(len(q), need)
	}
	if total := wb.DoF(); len(q) > total {
		return dualquat.Number{}, NewDimensionMismatchError(len(q), total)
	}
	x := dqmath.Identity()
	next := 0
	for _, e := range wb.entries[:upTo] {
		if e.isFixed {
			x = dualquat.Mul(x, e.fixed)
			continue
		}
		dim := e.segment.DoF()
		xi, err := e.segment.FKM(q[next : next+dim])
		if err != nil {
			return dualquat.Number{}, err
		}
		x = dualquat.Mul(x, xi)
		next += dim
	}
	return x, nil
}

// evaluateSegments computes every entry's pose and, when withJacobians is set,
// every segment's pose Jacobian at its configuration slice.
func (wb *WholeBody) evaluateSegments(q []float64, withJacobians bool) ([]dualquat.Number, []*mat.Dense, error) {
	if total := wb.DoF(); len(q) != total {
		return nil, nil, NewDimensionMismatchError(len(q), total)
	}
	poses := make([]dualquat.Number, len(wb.entries))
	jacobians := make([]*mat.Dense, len(wb.entries))
	next := 0
	for i, e := range wb.entries {
		if e.isFixed {
			poses[i] = e.fixed
			continue
		}
		dim := e.segment.DoF()
		slice := q[next : next+dim]
		xi, err := e.segment.FKM(slice)
		if err != nil {
			return nil, nil, err
		}
		poses[i] = xi
		if withJacobians {
			ji, err := e.segment.PoseJacobian(slice)
			if err != nil {
				return nil, nil, err
			}
			jacobians[i] = ji
		}
		next += dim
	}
	return poses, jacobians, nil
}

// suffixProducts returns, for each entry, the product of the poses after it;
// the last entry gets the identity.
func suffixProducts(poses []dualquat.Number) []dualquat.Number {
	afters := make([]dualquat.Number, len(poses))
	a := dqmath.Identity()
	for i := len(poses) - 1; i >= 0; i-- {
		afters[i] = a
		a = dualquat.Mul(poses[i], a)
	}
	return afters
}

// PoseJacobian returns the 8xDoF whole-body Jacobian. The block of segment i
// is Haminus8(after_i)·Hamiplus8(before_i)·J_i: the segment Jacobian with the
// constant-in-q_i neighbors folded in. Fixed entries contribute no columns.
func (wb *WholeBody) PoseJacobian(q []float64) (*mat.Dense, error) {
	total := wb.DoF()
	if total == 0 {
		return nil, errors.New("whole body has no degrees of freedom")
	}
	poses, jacobians, err := wb.evaluateSegments(q, true)
	if err != nil {
		return nil, err
	}
	afters := suffixProducts(poses)
	out := mat.NewDense(8, total, nil)
	before := dqmath.Identity()
	ops := mat.NewDense(8, 8, nil)
	col := 0
	for i, e := range wb.entries {
		if e.isFixed {
			before = dualquat.Mul(before, poses[i])
			continue
		}
		dim := e.segment.DoF()
		ops.Mul(dqmath.Haminus8(afters[i]), dqmath.Hamiplus8(before))
		block := mat.NewDense(8, dim, nil)
		block.Mul(ops, jacobians[i])
		out.Slice(0, 8, col, col+dim).(*mat.Dense).Copy(block)
		before = dualquat.Mul(before, poses[i])
		col += dim
	}
	return out, nil
}

// PoseJacobianDerivative returns the time derivative of the whole-body pose
// Jacobian along qdot, via the product rule over each segment block. Prefix
// and suffix products and their velocities follow the recurrences
// Bnext = B⊗x, Bdot_next = Bdot⊗x + B⊗xdot (and mirrored for suffixes), with
// vec8(xdot_i) = J_i·qdot_i.
func (wb *WholeBody) PoseJacobianDerivative(q, qdot []float64) (*mat.Dense, error) {
	total := wb.DoF()
	if total == 0 {
		return nil, errors.New("whole body has no degrees of freedom")
	}
	if len(qdot) != total {
		return nil, NewDimensionMismatchError(len(qdot), total)
	}
	poses, jacobians, err := wb.evaluateSegments(q, true)
	if err != nil {
		return nil, err
	}

	m := len(wb.entries)
	poseDots := make([]dualquat.Number, m)
	jacobianDots := make([]*mat.Dense, m)
	next := 0
	for i, e := range wb.entries {
		if e.isFixed {
			continue
		}
		dim := e.segment.DoF()
		qi, qdi := q[next:next+dim], qdot[next:next+dim]
		jdi, err := e.segment.PoseJacobianDerivative(qi, qdi)
		if err != nil {
			return nil, err
		}
		jacobianDots[i] = jdi
		v := mat.NewVecDense(8, nil)
		v.MulVec(jacobians[i], mat.NewVecDense(dim, qdi))
		poseDots[i] = dqmath.FromVec8(v.RawVector().Data)
		next += dim
	}

	befores := make([]dualquat.Number, m)
	beforeDots := make([]dualquat.Number, m)
	b, bdot := dqmath.Identity(), dualquat.Number{}
	for i := 0; i < m; i++ {
		befores[i], beforeDots[i] = b, bdot
		bdot = dualquat.Add(dualquat.Mul(bdot, poses[i]), dualquat.Mul(b, poseDots[i]))
		b = dualquat.Mul(b, poses[i])
	}
	afters := make([]dualquat.Number, m)
	afterDots := make([]dualquat.Number, m)
	a, adot := dqmath.Identity(), dualquat.Number{}
	for i := m - 1; i >= 0; i-- {
		afters[i], afterDots[i] = a, adot
		adot = dualquat.Add(dualquat.Mul(poseDots[i], a), dualquat.Mul(poses[i], adot))
		a = dualquat.Mul(poses[i], a)
	}

	out := mat.NewDense(8, total, nil)
	ops := mat.NewDense(8, 8, nil)
	col := 0
	for i, e := range wb.entries {
		if e.isFixed {
			continue
		}
		dim := e.segment.DoF()
		block := mat.NewDense(8, dim, nil)
		term := mat.NewDense(8, dim, nil)

		ops.Mul(dqmath.Haminus8(afterDots[i]), dqmath.Hamiplus8(befores[i]))
		block.Mul(ops, jacobians[i])

		ops.Mul(dqmath.Haminus8(afters[i]), dqmath.Hamiplus8(beforeDots[i]))
		term.Mul(ops, jacobians[i])
		block.Add(block, term)

		ops.Mul(dqmath.Haminus8(afters[i]), dqmath.Hamiplus8(befores[i]))
		term.Mul(ops, jacobianDots[i])
		block.Add(block, term)

		out.Slice(0, 8, col, col+dim).(*mat.Dense).Copy(block)
		col += dim
	}
	return out, nil
}

// BaseFrame returns the first segment's base frame.
func (wb *WholeBody) BaseFrame() dualquat.Number {
	if len(wb.entries) == 0 || wb.entries[0].isFixed {
		return dqmath.Identity()
	}
	return wb.entries[0].segment.BaseFrame()
}

// SetBaseFrame sets the first segment's base frame.
func (wb *WholeBody) SetBaseFrame(x dualquat.Number) error {
	if len(wb.entries) == 0 || wb.entries[0].isFixed {
		return errors.New("whole body has no leading segment")
	}
	return wb.entries[0].segment.SetBaseFrame(x)
}

// SetEffectorFrame sets the tool frame of the last segment, when it has one.
func (wb *WholeBody) SetEffectorFrame(x dualquat.Number) error {
	if len(wb.entries) == 0 {
		return errors.New("whole body has no segments")
	}
	last := wb.entries[len(wb.entries)-1]
	if last.isFixed {
		return errors.New("cannot set an effector frame on a fixed transform")
	}
	setter, ok := last.segment.(effectorSetter)
	if !ok {
		return errors.Errorf("segment %q does not support an effector frame", last.segment.Name())
	}
	return setter.SetEffectorFrame(x)
}

// EffectiveBaseFrames returns, for each entry, the whole-body pose accumulated
// before it: the world frame the entry effectively starts from. The first
// entry gets the identity. Pure; no segment state changes.
func (wb *WholeBody) EffectiveBaseFrames(q []float64) ([]dualquat.Number, error) {
	poses, _, err := wb.evaluateSegments(q, false)
	if err != nil {
		return nil, err
	}
	frames := make([]dualquat.Number, len(poses))
	x := dqmath.Identity()
	for i, p := range poses {
		frames[i] = x
		x = dualquat.Mul(x, p)
	}
	return frames, nil
}

// ApplyEffectiveBaseFrames writes each segment's effective base frame into the
// segment itself, replacing whatever base frame it had. Subsequent FKM results
// change accordingly. This is the explicit setup step for rendering segments
// standalone at their whole-body poses; use EffectiveBaseFrames and LinkPoses
// to stay side-effect free.
func (wb *WholeBody) ApplyEffectiveBaseFrames(q []float64) error {
	frames, err := wb.EffectiveBaseFrames(q)
	if err != nil {
		return err
	}
	for i, e := range wb.entries {
		if e.isFixed {
			continue
		}
		if err := e.segment.SetBaseFrame(frames[i]); err != nil {
			return err
		}
	}
	return nil
}

// LinkPoses returns every segment's link poses premultiplied by the whole-body
// prefix before that segment, fixed transforms folded into the prefixes.
func (wb *WholeBody) LinkPoses(q []float64) ([]dualquat.Number, error) {
	if total := wb.DoF(); len(q) != total {
		return nil, NewDimensionMismatchError(len(q), total)
	}
	var poses []dualquat.Number
	prefix := dqmath.Identity()
	next := 0
	for _, e := range wb.entries {
		if e.isFixed {
			prefix = dualquat.Mul(prefix, e.fixed)
			continue
		}
		dim := e.segment.DoF()
		segPoses, err := e.segment.LinkPoses(q[next : next+dim])
		if err != nil {
			return nil, err
		}
		for _, p := range segPoses {
			poses = append(poses, dualquat.Mul(prefix, p))
		}
		// a segment's final link pose is its FKM
		prefix = poses[len(poses)-1]
		next += dim
	}
	if len(wb.entries) > 0 && wb.entries[len(wb.entries)-1].isFixed {
		poses = append(poses, prefix)
	}
	return poses, nil
}
