package correction

import (
	"errors"
	"fmt"
)

// ErrUnknownMethod is returned for an unrecognised method name.
var ErrUnknownMethod = errors.New("correction: unknown method")

// Method selects how artifact photons are handled.
type Method int

const (
	// MethodWeights keeps all photons and gives artifact photons Options.Weight.
	MethodWeights Method = iota
	// MethodDelete deletes artifact photons. The corrected trace drops to zero
	// in artifact bins.
	MethodDelete
	// MethodDeleteAndShift deletes artifact photons and moves every later
	// photon back by the width of each deleted bin, as if the bins never
	// existed.
	MethodDeleteAndShift
)

func (m Method) String() string {
	switch m {
	case MethodWeights:
		return "weights"
	case MethodDelete:
		return "delete"
	case MethodDeleteAndShift:
		return "delete_and_shift"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod returns the Method for its String form.
func ParseMethod(s string) (Method, error) {
	for _, m := range []Method{MethodWeights, MethodDelete, MethodDeleteAndShift} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}
