package cortex

// #region imports
import (
	"sort"
	"strconv"
	"strings"
)

// #endregion imports

// #region operators

// Op is a comparison operator inside a rule condition.
type Op string

const (
	OpGE   Op = ">="
	OpLE   Op = "<="
	OpGT   Op = ">"
	OpLT   Op = "<"
	OpEQ   Op = "=="
	OpNone Op = "none" // plain truthiness: feature value != 0
)

// #endregion operators

// #region condition

// Predicate compares one feature against a threshold.
type Predicate struct {
	Op        Op      `json:"op"`
	Threshold float64 `json:"threshold"`
}

// Condition maps feature names to predicates. A rule matches a state only if
// every listed feature is present and its predicate holds.
type Condition map[string]Predicate

// Matches evaluates the condition against a feature map.
func (c Condition) Matches(state map[string]float64) bool {
	for feature, pred := range c {
		val, ok := state[feature]
		if !ok {
			return false
		}
		if !pred.holds(val) {
			return false
		}
	}
	return true
}

func (p Predicate) holds(val float64) bool {
	switch p.Op {
	case OpGE:
		return val >= p.Threshold
	case OpLE:
		return val <= p.Threshold
	case OpGT:
		return val > p.Threshold
	case OpLT:
		return val < p.Threshold
	case OpEQ:
		return val == p.Threshold
	case OpNone:
		return val != 0
	default:
		return false
	}
}

// Key returns a canonical string identity for the condition, used for
// duplicate detection on insert.
func (c Condition) Key() string {
	parts := make([]string, 0, len(c))
	for feature, pred := range c {
		parts = append(parts, feature+string(pred.Op)+strconv.FormatFloat(pred.Threshold, 'g', -1, 64))
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// #endregion condition

// #region rule

// CorticalRule is a distilled condition→action mapping with a confidence that
// grows through reinforcement.
type CorticalRule struct {
	Condition       Condition
	Action          string
	Confidence      float64
	SourceClusterID string
}

// #endregion rule
