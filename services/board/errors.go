package board

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned by protected operations when no session
// token is stored. It is raised locally, before any network traffic.
var ErrUnauthenticated = errors.New("not signed in")

// RequestError is any non-2xx response from the board API. Status classes
// are not distinguished structurally; callers that need to tell "needs
// login" from "server error" only have Status and Body to go on.
type RequestError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s failed: %d %s", e.Method, e.Path, e.Status, e.Body)
}
