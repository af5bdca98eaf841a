package constants

// Context keys set by the auth middleware
const (
	ContextKeyUserID   = "user_id"
	ContextKeyUsername = "username"
	ContextKeyUserRole = "role"
)

const MinPasswordLength = 6

// Pagination
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Field limits
const (
	MaxTitleLength    = 200
	MaxCommentLength  = 1000
	MaxEstimatedHours = 1000
	MaxProgress       = 100
)

const MaxAISuggestedTasks = 20
