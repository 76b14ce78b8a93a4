package service

// Kind classifies a service failure so the transport can map it to a status
type Kind int

const (
	// Persistence means a storage call failed
	Persistence Kind = iota
	// AuthenticationRequired means no identity was supplied
	AuthenticationRequired
	// AuthorizationDenied means the identity does not own the poll
	AuthorizationDenied
	// NotFound means the requested poll does not exist
	NotFound
)

func (k Kind) String() string {
	switch k {
	case AuthenticationRequired:
		return "authentication_required"
	case AuthorizationDenied:
		return "authorization_denied"
	case NotFound:
		return "not_found"
	default:
		return "persistence"
	}
}

// Error is a user-facing failure. Message is shown to end users verbatim.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Messages below are relied on by clients; keep them byte-for-byte.
var (
	ErrLoginRequired  = newError(AuthenticationRequired, "You must be logged in to create a poll.")
	ErrCreatePoll     = newError(Persistence, "Failed to create poll.")
	ErrCreateOptions  = newError(Persistence, "Failed to create poll options.")
	ErrLoadPolls      = newError(Persistence, "Failed to load polls.")
	ErrLoadPoll       = newError(Persistence, "Failed to load poll.")
	ErrPollNotFound   = newError(NotFound, "Poll not found.")
	ErrUpdateLogin    = newError(AuthenticationRequired, "You must be logged in to update a poll.")
	ErrUpdateNotOwner = newError(AuthorizationDenied, "You are not authorized to edit this poll.")
	ErrUpdateQuestion = newError(Persistence, "Failed to update poll question.")
	ErrAddOptions     = newError(Persistence, "Failed to add new options.")
	ErrUpdateOptions  = newError(Persistence, "Failed to update existing options.")
	ErrRemoveOptions  = newError(Persistence, "Failed to remove old options.")
	ErrDeleteLogin    = newError(AuthenticationRequired, "You must be logged in to delete a poll.")
	ErrDeleteNotOwner = newError(AuthorizationDenied, "You are not authorized to delete this poll.")
	ErrDeletePoll     = newError(Persistence, "Failed to delete poll.")
)
