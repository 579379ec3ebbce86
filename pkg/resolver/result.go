package resolver

// Outcome tags how a Result was produced.
type Outcome int

const (
	// Failure means neither surface produced a value.
	Failure Outcome = iota
	// Demo means the value came from static demo data; no network was touched.
	Demo
	// Success means the privileged surface answered.
	Success
	// Fallback means the privileged surface failed and the public one answered.
	Fallback
)

func (o Outcome) String() string {
	switch o {
	case Demo:
		return "demo"
	case Success:
		return "success"
	case Fallback:
		return "fallback"
	default:
		return "failure"
	}
}

// Result is the tagged variant returned by every resolution.
// Value is meaningful only when Outcome is not Failure; Err is set only on
// Failure and is always a domain.ResolutionError or domain.SubmissionError.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Err     error
}

// OK reports whether a value was produced.
func (r Result[T]) OK() bool {
	return r.Outcome != Failure
}

// Unwrap returns the value and error in the conventional Go shape.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
