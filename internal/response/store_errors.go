package response

import "strings"

// StoreErrorMessage buckets an external-store failure into a best-effort
// human-readable category. Failures are surfaced, not retried; the user
// retries the action manually.
func StoreErrorMessage(err error) string {
	if err == nil {
		return GetMessage(ErrInternal)
	}

	message := strings.ToLower(err.Error())

	switch {
	case strings.Contains(message, "connection") || strings.Contains(message, "network"):
		return "Unable to connect to the database. Please check your internet connection and try again."
	case strings.Contains(message, "permission") || strings.Contains(message, "unauthorized") || strings.Contains(message, "forbidden"):
		return "You don't have permission to perform this action. Please contact your administrator."
	case strings.Contains(message, "validation") || strings.Contains(message, "invalid"):
		return "Some of the submitted information is invalid. Please check all fields and try again."
	case strings.Contains(message, "unique") || strings.Contains(message, "duplicate"):
		return "A record with these details already exists. Please choose different values."
	case strings.Contains(message, "foreign key") || strings.Contains(message, "reference"):
		return "There's a problem with the data structure. Please refresh the page and try again."
	case strings.Contains(message, "timeout") || strings.Contains(message, "time out"):
		return "The operation took too long to complete. Please try again."
	case strings.Contains(message, "server error") || strings.Contains(message, "internal error"):
		return "There's a temporary problem with our servers. Please try again in a few minutes."
	case strings.Contains(message, "authentication") || strings.Contains(message, "session"):
		return "Your session has expired. Please log out and log back in."
	default:
		return GetMessage(ErrInternal)
	}
}
