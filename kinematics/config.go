package kinematics

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// JointConfig is one joint of a serialized model. Angles are radians, offsets
// meters. Min and Max both zero means the joint is unbounded.
type JointConfig struct {
	ID    string  `json:"id"`
	Type  string  `json:"type"`
	Theta float64 `json:"theta"`
	D     float64 `json:"d"`
	A     float64 `json:"a"`
	Alpha float64 `json:"alpha"`
	Min   float64 `json:"min,omitempty"`
	Max   float64 `json:"max,omitempty"`
}

// ModelConfig is the JSON description of a serial manipulator.
type ModelConfig struct {
	Name       string        `json:"name"`
	Convention string        `json:"convention"`
	Joints     []JointConfig `json:"joints"`
}

// Parse builds the serial manipulator the config describes. Every invalid
// joint entry is reported, not just the first.
func (cfg *ModelConfig) Parse() (*SerialManipulator, error) {
	var convention Convention
	switch strings.ToUpper(cfg.Convention) {
	case "DH", "":
		convention = DH
	case "MDH", "MODIFIED":
		convention = MDH
	default:
		return nil, errors.Errorf("unsupported convention %q, want DH or MDH", cfg.Convention)
	}
	if len(cfg.Joints) == 0 {
		return nil, errors.New("model config has no joints")
	}
	var badJoints error
	joints := make([]Joint, 0, len(cfg.Joints))
	limits := make([]Limit, 0, len(cfg.Joints))
	for i, jc := range cfg.Joints {
		var jt JointType
		switch strings.ToLower(jc.Type) {
		case "revolute":
			jt = Revolute
		case "prismatic":
			jt = Prismatic
		default:
			badJoints = multierr.Append(badJoints,
				fmt.Errorf("%w: joint %d (%q) has type %q", ErrUnsupportedJointType, i, jc.ID, jc.Type))
			continue
		}
		joints = append(joints, Joint{Theta: jc.Theta, D: jc.D, A: jc.A, Alpha: jc.Alpha, Type: jt})
		if jc.Min == 0 && jc.Max == 0 {
			limits = append(limits, unlimited())
		} else {
			limits = append(limits, Limit{Min: jc.Min, Max: jc.Max})
		}
	}
	if badJoints != nil {
		return nil, badJoints
	}
	m, err := NewSerialManipulatorFromJoints(convention, joints)
	if err != nil {
		return nil, err
	}
	if err := m.SetLimits(limits); err != nil {
		return nil, err
	}
	m.SetName(cfg.Name)
	return m, nil
}

// UnmarshalModelJSON builds a serial manipulator from raw model JSON.
func UnmarshalModelJSON(jsonData []byte) (*SerialManipulator, error) {
	cfg := &ModelConfig{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse model json")
	}
	return cfg.Parse()
}

// ParseModelJSONFile builds a serial manipulator from a model JSON file.
func ParseModelJSONFile(filename string, logger golog.Logger) (*SerialManipulator, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model json file")
	}
	m, err := UnmarshalModelJSON(jsonData)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		logger.Debugf("loaded model %q: %s convention, %d joints", m.Name(), m.Convention().Name(), m.DoF())
	}
	return m, nil
}
