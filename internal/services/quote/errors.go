package quote

// Error carries the quote id alongside the resolver's error. It unwraps to
// the underlying *models error.
type Error struct {
	ID  string
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
