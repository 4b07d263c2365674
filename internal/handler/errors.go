package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/certlab/certlab-backend/internal/response"
	"github.com/certlab/certlab-backend/internal/service"
)

// handleServiceError maps service-layer sentinel errors onto the response
// envelope. Unknown errors become a bucketed 500 so store failures surface
// with an actionable message instead of a stack trace.
func handleServiceError(c *gin.Context, err error) {
	var publishErr *service.PublishValidationError
	var notYet *service.NotYetStartedError
	var ended *service.EndedError

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	case errors.Is(err, service.ErrEmailTaken):
		response.Fail(c, http.StatusConflict, response.ErrEmailTaken)
	case errors.Is(err, service.ErrSessionInvalidated):
		response.Fail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)

	case errors.Is(err, service.ErrNotExamCreator):
		response.Fail(c, http.StatusForbidden, response.ErrNotExamCreator)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.As(err, &publishErr):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrPublishIncomplete, publishErr.Reason)

	case errors.Is(err, service.ErrEmptyCode):
		response.Fail(c, http.StatusBadRequest, response.ErrEmptyCode)
	case errors.Is(err, service.ErrInvalidOrUsedCode):
		response.Fail(c, http.StatusNotFound, response.ErrInvalidOrUsedCode)
	case errors.Is(err, service.ErrCodeExpired):
		response.Fail(c, http.StatusGone, response.ErrCodeExpired)
	case errors.Is(err, service.ErrCodeNotAssigned):
		response.Fail(c, http.StatusForbidden, response.ErrCodeNotAssigned)
	case errors.Is(err, service.ErrAccountNotProvisioned):
		response.Fail(c, http.StatusForbidden, response.ErrNotProvisioned)

	case errors.As(err, &notYet):
		response.FailWithMessage(c, http.StatusForbidden, response.ErrExamNotStarted, notYet.Error())
	case errors.As(err, &ended):
		response.FailWithMessage(c, http.StatusForbidden, response.ErrExamEnded, ended.Error())
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotPublished)

	case errors.Is(err, service.ErrAttemptAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAttemptCompleted)
	case errors.Is(err, service.ErrNotYourAttempt):
		response.Fail(c, http.StatusForbidden, response.ErrNotYourAttempt)
	case errors.Is(err, service.ErrResultsHidden):
		response.Fail(c, http.StatusForbidden, response.ErrResultsHidden)
	case errors.Is(err, service.ErrNoCompletedAttempt):
		response.Fail(c, http.StatusNotFound, response.ErrNoCompletedAttempt)

	default:
		response.FailWithMessage(c, http.StatusInternalServerError, response.ErrInternal, response.StoreErrorMessage(err))
	}
}
