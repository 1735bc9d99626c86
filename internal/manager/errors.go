package manager

// notReadyError signals that Open was refused because a registry is not ready.
type notReadyError struct{ registry string }

func (e notReadyError) Error() string { return "registry not ready: " + e.registry }

// IsNotReady reports whether err indicates a consumer registry was not ready.
func IsNotReady(err error) bool {
	_, ok := err.(notReadyError)
	return ok
}

// closedError signals use of a manager after Close.
type closedError struct{}

func (closedError) Error() string { return "manager closed" }

// ErrClosed is returned by Open after Close.
var ErrClosed error = closedError{}

// IsClosed reports whether err indicates the manager was closed.
func IsClosed(err error) bool {
	_, ok := err.(closedError)
	return ok
}
