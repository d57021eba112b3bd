package arena

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// ErrNoCapability means discovery returned nothing usable for fetching a
// contestant by identifier. Fatal for the run.
var ErrNoCapability = eris.New("arena: no usable capability advertised")

// Side names one of the two contest positions. The caller's argument
// order fixes which identifier is side A; fetch completion order never
// changes it.
type Side string

const (
	SideA Side = "side_a"
	SideB Side = "side_b"
)

// UnresolvableError is the terminal per-identifier failure: the service
// reported not-found, retries were exhausted, or the response carried no
// categories. Never retried within the run.
type UnresolvableError struct {
	Identifier string
	Err        error
}

func (e *UnresolvableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("arena: %q unresolvable: %v", e.Identifier, e.Err)
	}
	return fmt.Sprintf("arena: %q unresolvable", e.Identifier)
}

func (e *UnresolvableError) Unwrap() error { return e.Err }

// OrchestrationError reports which side sank the run and why. Timeout is
// set when the overall deadline elapsed before both sides resolved.
type OrchestrationError struct {
	Side    Side
	Timeout bool
	Err     error
}

func (e *OrchestrationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("arena: %s: overall deadline elapsed: %v", e.Side, e.Err)
	}
	return fmt.Sprintf("arena: %s: %v", e.Side, e.Err)
}

func (e *OrchestrationError) Unwrap() error { return e.Err }
