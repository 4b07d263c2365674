package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/certlab/certlab-backend/internal/middleware"
	"github.com/certlab/certlab-backend/internal/model"
	"github.com/certlab/certlab-backend/internal/response"
	"github.com/certlab/certlab-backend/internal/service"
	"github.com/certlab/certlab-backend/internal/validator"
)

// TakeHandler serves the taker-facing session endpoints.
type TakeHandler struct {
	attempts *service.AttemptService
	exams    *service.ExamService
	results  service.ResultStore
}

// NewTakeHandler creates a TakeHandler.
func NewTakeHandler(attempts *service.AttemptService, exams *service.ExamService, results service.ResultStore) *TakeHandler {
	return &TakeHandler{attempts: attempts, exams: exams, results: results}
}

// Verify handles GET /take/exams/:exam_id/verify?code=CODE. It runs the
// redemption and availability gates without starting anything, so the client
// can show the exam landing view before the taker commits.
func (h *TakeHandler) Verify(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	e, err := h.attempts.Verify(c.Request.Context(), examID, c.Query("code"), claims.Email)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"exam_id":     e.ID,
		"title":       e.Title,
		"description": e.Description,
		"time_limit":  e.TimeLimitMinutes(),
		"verified":    true,
	})
}

// Paper handles GET /take/exams/:exam_id/paper — the cached taker-facing
// payload with correct answers stripped.
func (h *TakeHandler) Paper(c *gin.Context) {
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	paper, err := h.exams.GetPaper(c.Request.Context(), examID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, paper)
}

// Start handles POST /take/exams/:exam_id/start.
func (h *TakeHandler) Start(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.attempts.Start(c.Request.Context(), examID, claims.UserID, claims.Email, req.Code)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, state)
}

// State handles GET /take/attempts/:attempt_id/state — the resumable view
// after a reload.
func (h *TakeHandler) State(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	state, err := h.attempts.GetState(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, state)
}

// SaveAnswer handles POST /take/attempts/:attempt_id/answers.
func (h *TakeHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	var req model.SaveAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attempts.SaveAnswer(c.Request.Context(), attemptID, claims.UserID, req.QuestionID, req.Answer); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"saved": true})
}

// Submit handles POST /take/attempts/:attempt_id/submit.
func (h *TakeHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	attemptID, ok := paramUUID(c, "attempt_id")
	if !ok {
		return
	}

	outcome, err := h.attempts.Submit(c.Request.Context(), attemptID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	if !outcome.ShowResults {
		response.Success(c, http.StatusOK, gin.H{
			"attempt_id": outcome.AttemptID,
			"submitted":  true,
		})
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// Result handles GET /take/exams/:exam_id/result — the taker's most recent
// completed attempt with the per-subject breakdown.
func (h *TakeHandler) Result(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	outcome, err := h.attempts.Result(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, outcome)
}

// History handles GET /take/results — the taker's completed attempts across
// all exams.
func (h *TakeHandler) History(c *gin.Context) {
	claims := middleware.GetClaims(c)

	rows, err := h.results.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	// Hide scores for exams that withhold results.
	out := make([]model.ExamResultRow, 0, len(rows))
	for _, row := range rows {
		if !row.ShowResults {
			row.Score = nil
			row.Passed = nil
		}
		out = append(out, row)
	}
	response.Success(c, http.StatusOK, out)
}
