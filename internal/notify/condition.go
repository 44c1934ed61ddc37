package notify

import (
	"strconv"
	"strings"

	"github.com/huntwatch/huntwatch/pkg/types"
)

// evalCondition evaluates a rule condition string against a sighting.
//
// Supported expressions (field operator value):
//
//	count > 10
//	count >= 3
//	per_second > 0.5
//	name == behemoth
//	world == srv1
//	instance == job2
//
// String fields support only "=="; the name comparison is case-insensitive,
// matching identity semantics. Returns (fires, triggering value); an
// unparseable expression or unknown field never fires.
func evalCondition(cond string, rep types.SightingReport) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "name":
		if op == "==" {
			return strings.EqualFold(rep.Name, rhs), 0
		}
		return false, 0

	case "world":
		if op == "==" {
			return rep.World == rhs, 0
		}
		return false, 0

	case "instance":
		if op == "==" {
			return rep.Instance == rhs, 0
		}
		return false, 0

	default:
		v, ok := numericField(field, rep)
		if !ok {
			return false, 0
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v
	}
}

// numericField maps a field name to its value in the sighting.
func numericField(field string, rep types.SightingReport) (float64, bool) {
	switch field {
	case "count":
		return float64(rep.Count), true
	case "per_second":
		return rep.PerSecond, true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
