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

// ContentHandler serves subject and question authoring endpoints.
type ContentHandler struct {
	content *service.ContentService
}

// NewContentHandler creates a ContentHandler.
func NewContentHandler(content *service.ContentService) *ContentHandler {
	return &ContentHandler{content: content}
}

// ListSubjects handles GET /exams/:exam_id/subjects.
func (h *ContentHandler) ListSubjects(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	subjects, err := h.content.ListSubjects(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, subjects)
}

// CreateSubject handles POST /exams/:exam_id/subjects.
func (h *ContentHandler) CreateSubject(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.CreateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.content.CreateSubject(c.Request.Context(), examID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sub)
}

// UpdateSubject handles PUT /subjects/:subject_id.
func (h *ContentHandler) UpdateSubject(c *gin.Context) {
	claims := middleware.GetClaims(c)
	subjectID, ok := paramUUID(c, "subject_id")
	if !ok {
		return
	}

	var req model.UpdateSubjectRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	sub, err := h.content.UpdateSubject(c.Request.Context(), subjectID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sub)
}

// DeleteSubject handles DELETE /subjects/:subject_id.
func (h *ContentHandler) DeleteSubject(c *gin.Context) {
	claims := middleware.GetClaims(c)
	subjectID, ok := paramUUID(c, "subject_id")
	if !ok {
		return
	}

	if err := h.content.DeleteSubject(c.Request.Context(), subjectID, claims.UserID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// ListQuestions handles GET /subjects/:subject_id/questions.
func (h *ContentHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	subjectID, ok := paramUUID(c, "subject_id")
	if !ok {
		return
	}

	questions, err := h.content.ListQuestions(c.Request.Context(), subjectID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, questions)
}

// CreateQuestion handles POST /subjects/:subject_id/questions.
func (h *ContentHandler) CreateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	subjectID, ok := paramUUID(c, "subject_id")
	if !ok {
		return
	}

	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.content.CreateQuestion(c.Request.Context(), subjectID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, q)
}

// UpdateQuestion handles PUT /questions/:question_id.
func (h *ContentHandler) UpdateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	q, err := h.content.UpdateQuestion(c.Request.Context(), questionID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, q)
}

// DeleteQuestion handles DELETE /questions/:question_id.
func (h *ContentHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	questionID, ok := paramUUID(c, "question_id")
	if !ok {
		return
	}

	if err := h.content.DeleteQuestion(c.Request.Context(), questionID, claims.UserID); err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
