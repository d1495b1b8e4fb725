package services

import "errors"

// Error kinds. Every error a service returns on purpose wraps exactly one of
// these; anything else is an infrastructure failure.
var (
	ErrValidation = errors.New("validation error")
	ErrAuth       = errors.New("authentication error")
	ErrForbidden  = errors.New("forbidden")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

// Kind returns the kind sentinel err wraps, or nil for unclassified errors.
func Kind(err error) error {
	for _, kind := range []error{ErrValidation, ErrAuth, ErrForbidden, ErrNotFound, ErrConflict} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

var (
	ErrEmailRequired      = newError(ErrValidation, "Email is required")
	ErrInvalidEmail       = newError(ErrValidation, "Invalid email address")
	ErrPasswordRequired   = newError(ErrValidation, "Password is required")
	ErrPasswordTooShort   = newError(ErrValidation, "Password must be at least 6 characters")
	ErrEmailTaken         = newError(ErrValidation, "Email is already registered")
	ErrInvalidRole        = newError(ErrValidation, "Invalid role")
	ErrInvalidCredentials = newError(ErrAuth, "Invalid credentials")
	ErrInvalidToken       = newError(ErrAuth, "Invalid or expired token")
	ErrResetTokenRequired = newError(ErrValidation, "Token is required")
	ErrInvalidResetToken  = newError(ErrAuth, "Invalid or expired reset token")
	ErrUserNotFound       = newError(ErrNotFound, "User not found")
	ErrNoAvatar           = newError(ErrNotFound, "No avatar to delete")
	ErrInvalidAvatar      = newError(ErrValidation, "Only jpeg, jpg, png and gif images are allowed")
	ErrAvatarTooLarge     = newError(ErrValidation, "Avatar must be 5MB or smaller")

	ErrTitleRequired       = newError(ErrValidation, "Title is required")
	ErrInvalidStatus       = newError(ErrValidation, "Invalid status")
	ErrInvalidPriority     = newError(ErrValidation, "Invalid priority")
	ErrInvalidDateRange    = newError(ErrValidation, "End date must not be before start date")
	ErrProjectTitleTaken   = newError(ErrConflict, "A project with this title already exists")
	ErrProjectNotFound     = newError(ErrNotFound, "Project not found")
	ErrProjectForbidden    = newError(ErrForbidden, "Only Admin or Project Manager can manage projects")
	ErrUnknownMember       = newError(ErrValidation, "One or more members do not exist")
	ErrTaskNotFound        = newError(ErrNotFound, "Task not found")
	ErrTaskForbidden       = newError(ErrForbidden, "You are not allowed to modify this task")
	ErrUnknownProject      = newError(ErrValidation, "Project does not exist")
	ErrUnknownAssignee     = newError(ErrValidation, "Assignee does not exist")
	ErrCommentRequired     = newError(ErrValidation, "Comment text is required")
	ErrDateRequired        = newError(ErrValidation, "Date is required")
	ErrEventNotFound       = newError(ErrNotFound, "Event not found")
	ErrEventForbidden      = newError(ErrForbidden, "Only the creator can delete this event")
	ErrFileRequired        = newError(ErrValidation, "File is required")
	ErrSettingsNotObject   = newError(ErrValidation, "Settings must be a JSON object")
)
