package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrEmailTaken         ErrCode = "EMAIL_ALREADY_REGISTERED"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"
	ErrSessionInvalidated ErrCode = "SESSION_INVALIDATED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden       ErrCode = "FORBIDDEN"
	ErrCreatorOnly     ErrCode = "CREATOR_ACCESS_ONLY"
	ErrNotExamCreator  ErrCode = "NOT_EXAM_CREATOR"
	ErrNotYourAttempt  ErrCode = "NOT_YOUR_ATTEMPT"
	ErrNotProvisioned  ErrCode = "ACCOUNT_NOT_PROVISIONED"
	ErrCodeNotAssigned ErrCode = "CODE_NOT_ASSIGNED_TO_ACCOUNT"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrEmptyCode      ErrCode = "EMPTY_CODE"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"
	ErrConflict ErrCode = "CONFLICT"

	// ─── Exam lifecycle ────────────────────────────────────────────────
	ErrInvalidOrUsedCode  ErrCode = "INVALID_OR_USED_CODE"
	ErrCodeExpired        ErrCode = "CODE_EXPIRED"
	ErrExamNotPublished   ErrCode = "EXAM_NOT_PUBLISHED"
	ErrExamNotStarted     ErrCode = "EXAM_NOT_YET_STARTED"
	ErrExamEnded          ErrCode = "EXAM_ENDED"
	ErrExamNotDraft       ErrCode = "EXAM_NOT_DRAFT"
	ErrPublishIncomplete  ErrCode = "PUBLISH_VALIDATION_FAILED"
	ErrAttemptCompleted   ErrCode = "ATTEMPT_ALREADY_COMPLETED"
	ErrResultsHidden      ErrCode = "RESULTS_NOT_AVAILABLE"
	ErrNoCompletedAttempt ErrCode = "NO_COMPLETED_ATTEMPT"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server / external store ───────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Invalid email or password."
	case ErrEmailTaken:
		return "An account with this email already exists."
	case ErrTokenRequired:
		return "Authentication token required."
	case ErrTokenInvalid:
		return "Authentication token is invalid."
	case ErrSessionInvalidated:
		return "Your session has expired. Please log out and log back in."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "You don't have permission to perform this action."
	case ErrCreatorOnly:
		return "This resource is restricted to exam creators."
	case ErrNotExamCreator:
		return "You are not the creator of this exam."
	case ErrNotYourAttempt:
		return "This attempt belongs to a different account."
	case ErrNotProvisioned:
		return "Your account is not properly registered in the system. Please contact your administrator to set up your account before taking exams."
	case ErrCodeNotAssigned:
		return "This access code is not assigned to your account. Please use the correct access code for your account or contact your administrator."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrEmptyCode:
		return "Please enter your access code."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrConflict:
		return "Resource already exists."

	// ─── Exam lifecycle ────────────────────────────────────────────────
	case ErrInvalidOrUsedCode:
		return "Invalid or expired access code. Please check your code and try again."
	case ErrCodeExpired:
		return "This access code has expired. Please contact your administrator for a new code."
	case ErrExamNotPublished:
		return "This exam is not published."
	case ErrExamNotStarted:
		return "This exam is not yet available."
	case ErrExamEnded:
		return "This exam has ended."
	case ErrExamNotDraft:
		return "This exam is not in draft status."
	case ErrPublishIncomplete:
		return "The exam is not ready to be published."
	case ErrAttemptCompleted:
		return "This attempt has already been submitted."
	case ErrResultsHidden:
		return "Results are not shown for this exam."
	case ErrNoCompletedAttempt:
		return "No completed exam attempt found."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server / external store ───────────────────────────────────────
	case ErrInternal:
		return "An unexpected error occurred. Please try again."
	default:
		return "An unexpected error occurred. Please try again."
	}
}
