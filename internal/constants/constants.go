package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUser      = "user"
	ContextKeyRequestID = "request_id"
)

// Authentication
const (
	MinPasswordLength    = 6
	ResetTokenBytes      = 32
	DefaultResetTokenTTL = 10 * time.Minute
	BearerPrefix         = "Bearer "
)

// Uploads
const (
	MaxAvatarSize    = 5 << 20
	AvatarDir        = "avatars"
	UploadsURLPrefix = "/uploads"
	AvatarFormField  = "avatar"
	FileFormField    = "file"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Messages returned verbatim to clients.
const (
	MsgPasswordResetRequested = "If the email exists, a reset link has been sent."
	MsgPasswordResetDone      = "Password reset successful. You can now login with your new password."
)
