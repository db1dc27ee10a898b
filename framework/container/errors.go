package container

import (
	"fmt"
	"strconv"
	"strings"
)

// NotRegisteredError is returned when no binding for a contract can be found
// anywhere in the container chain, or when a found binding fails to construct
// (the construction failure is carried in Cause).
type NotRegisteredError struct {
	Contract string
	Name     string
	Cause    error
}

func (e *NotRegisteredError) Error() string {
	var b strings.Builder
	b.WriteString("container: contract ")
	b.WriteString(strconv.Quote(e.Contract))
	if e.Name != "" {
		b.WriteString(" (name ")
		b.WriteString(strconv.Quote(e.Name))
		b.WriteString(")")
	}
	if e.Cause == nil {
		b.WriteString(" is not registered")
	} else {
		b.WriteString(" could not be built: ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *NotRegisteredError) Unwrap() error { return e.Cause }

// CircularDependencyError is returned when a resolution chain re-enters the
// construction of a contract it is already building. The container fails fast
// instead of recursing; a cyclic registration is a configuration defect and is
// never retried.
type CircularDependencyError struct {
	Chain []string
}

func (e *CircularDependencyError) Error() string {
	return "container: circular dependency: " + strings.Join(e.Chain, " -> ")
}

// ConfigurationError reports an illegal registration: a per-scope binding on a
// root container, a write to a sealed contract, a malformed registration
// record, or a discovery conflict under a Fail policy.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "container: " + e.Reason
}

// LifetimeRangeError reports a lifetime value outside the known set. It
// indicates a code defect in the caller, not bad user input.
type LifetimeRangeError struct {
	Lifetime Lifetime
}

func (e *LifetimeRangeError) Error() string {
	return fmt.Sprintf("container: unrecognized lifetime %d", int(e.Lifetime))
}
