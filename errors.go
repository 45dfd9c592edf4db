package companion

import (
	"fmt"

	"github.com/cyberFlowTech/companion-sdk-go/persona"
	"github.com/pkg/errors"
)

// ──────────────────────────────────────────────
// Error taxonomy
// ──────────────────────────────────────────────

var (
	// ErrUnknownPersona is returned when a persona id is not in the registry.
	ErrUnknownPersona = persona.ErrUnknownPersona
	// ErrConfiguration is returned when the persona table is invalid.
	ErrConfiguration = persona.ErrConfiguration
	// ErrPrecondition matches every *PreconditionError via errors.Is.
	ErrPrecondition = errors.New("precondition violated")
)

// PreconditionError reports caller misuse: structurally invalid input that
// is a programming error rather than a runtime condition.
type PreconditionError struct {
	Op     string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

// Is makes errors.Is(err, ErrPrecondition) true.
func (e *PreconditionError) Is(target error) bool {
	return target == ErrPrecondition
}

func (e *PreconditionError) Unwrap() error { return e.Err }

func preconditionf(op string, cause error, format string, args ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...), Err: cause}
}
