package merge

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCircularInheritance is matched by every *CycleError.
var ErrCircularInheritance = errors.New("circular inheritance")

// CycleError reports a batch whose inheritance graph cannot be fully ordered.
type CycleError struct {
	Cycle      []string // one closed path; the first key is repeated at the end
	Unresolved []string // every key left unmerged, in first-encountered order
}

func (e *CycleError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrCircularInheritance, strings.Join(e.Cycle, " -> "))
	if extra := len(e.Unresolved) - (len(e.Cycle) - 1); extra > 0 {
		msg += fmt.Sprintf(" (%d more interface(s) depend on the cycle)", extra)
	}
	return msg
}

func (e *CycleError) Is(target error) bool {
	return target == ErrCircularInheritance
}
