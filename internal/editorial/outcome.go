package editorial

// Payload is a validated structured result.
type Payload map[string]any

// Outcome is the terminal artifact of one submission: either a payload or a
// classified failure, never both.
type Outcome struct {
	payload Payload
	failure *Error
}

// Succeeded wraps a validated payload.
func Succeeded(p Payload) Outcome {
	if p == nil {
		p = Payload{}
	}
	return Outcome{payload: p}
}

// Failed wraps a failure. Unclassified errors become server_error.
func Failed(err error) Outcome {
	if err == nil {
		err = NewError(KindServerError, "failure without cause")
	}
	return Outcome{failure: AsError(err)}
}

// OutcomeOf builds an Outcome from a (payload, error) pair.
func OutcomeOf(p Payload, err error) Outcome {
	if err != nil {
		return Failed(err)
	}
	return Succeeded(p)
}

// OK reports whether the outcome carries a payload.
func (o Outcome) OK() bool { return o.failure == nil }

// Payload returns the payload of a successful outcome.
func (o Outcome) Payload() (Payload, bool) {
	if o.failure != nil {
		return nil, false
	}
	return o.payload, true
}

// Failure returns the failure of an unsuccessful outcome, or nil.
func (o Outcome) Failure() *Error { return o.failure }

// Err returns the failure as an error, or nil.
func (o Outcome) Err() error {
	if o.failure == nil {
		return nil
	}
	return o.failure
}
