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

// CodeHandler serves access-code issuance endpoints for creators.
type CodeHandler struct {
	codes *service.CodeService
}

// NewCodeHandler creates a CodeHandler.
func NewCodeHandler(codes *service.CodeService) *CodeHandler {
	return &CodeHandler{codes: codes}
}

// Generate handles POST /exams/:exam_id/codes.
func (h *CodeHandler) Generate(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.GenerateCodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.codes.Generate(c.Request.Context(), examID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// GenerateBulk handles POST /exams/:exam_id/codes/bulk.
func (h *CodeHandler) GenerateBulk(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	var req model.GenerateBulkCodesRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	results, err := h.codes.GenerateBulk(c.Request.Context(), examID, claims.UserID, &req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, results)
}

// List handles GET /exams/:exam_id/codes.
func (h *CodeHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	examID, ok := paramUUID(c, "exam_id")
	if !ok {
		return
	}

	codes, err := h.codes.List(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, codes)
}

// Revoke handles DELETE /codes/:code_id. Consumed codes cannot be revoked.
func (h *CodeHandler) Revoke(c *gin.Context) {
	claims := middleware.GetClaims(c)
	codeID, ok := paramUUID(c, "code_id")
	if !ok {
		return
	}

	revoked, err := h.codes.Revoke(c.Request.Context(), codeID, claims.UserID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if !revoked {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"revoked": true})
}
