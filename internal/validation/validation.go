package validation

// Error marks input the caller supplied as invalid, as opposed to an
// internal failure. Handlers map it to a 400 with the message verbatim.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func fail(message string) error {
	return &Error{Message: message}
}
