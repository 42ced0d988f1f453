package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/contactmerge/backend/internal/domain"
	"github.com/contactmerge/backend/internal/logger"
	"github.com/contactmerge/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	dedupeService *usecase.DedupeService
}

// NewHandler creates a new HTTP handler
func NewHandler(dedupeService *usecase.DedupeService) *Handler {
	return &Handler{
		dedupeService: dedupeService,
	}
}

// importRequest is the body of POST /api/v1/contacts
type importRequest struct {
	Contacts []domain.ContactRecord `json:"contacts" binding:"required"`
}

// similarityRequest is the body of POST /api/v1/similarity
type similarityRequest struct {
	A domain.ContactRecord `json:"a"`
	B domain.ContactRecord `json:"b"`
}

// searchRequest is the body of POST /api/v1/duplicates/search; the body may be empty
type searchRequest struct {
	Threshold *float64 `json:"threshold"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "contactmerge-backend",
		"version": "1.0.0",
	})
}

// ListContacts returns every contact in the repository
func (h *Handler) ListContacts(c *gin.Context) {
	contacts, err := h.dedupeService.ListContacts(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// ImportContacts upserts a batch of contacts
func (h *Handler) ImportContacts(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	saved, err := h.dedupeService.ImportContacts(c.Request.Context(), req.Contacts)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"contacts": saved,
		"count":    len(saved),
	})
}

// ScorePair compares two records supplied in the body
func (h *Handler) ScorePair(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.dedupeService.Score(req.A, req.B))
}

// SearchDuplicates groups the current snapshot; an omitted threshold uses the configured one
func (h *Handler) SearchDuplicates(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondBadRequest(c, err)
		return
	}

	threshold := h.dedupeService.Threshold()
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	groups, err := h.dedupeService.FindDuplicates(c.Request.Context(), req.Threshold)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups":    groups,
		"count":     len(groups),
		"threshold": threshold,
	})
}

// PreviewMerge reports the field changes a merge would make without persisting it
func (h *Handler) PreviewMerge(c *gin.Context) {
	var req domain.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	preview, err := h.dedupeService.PreviewMerge(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// ApplyMerge merges the secondaries into the master and deletes the secondaries
func (h *Handler) ApplyMerge(c *gin.Context) {
	var req domain.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondBadRequest(c, err)
		return
	}

	merged, err := h.dedupeService.ApplyMerge(c.Request.Context(), &req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contact": merged,
		"merged":  req.SecondaryIDs,
	})
}

func (h *Handler) respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   domain.ErrInvalidRequest.Error(),
		"details": err.Error(),
	})
}

// respondError maps domain errors to HTTP status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case domain.IsValidation(err):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrContactNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrBackendFailure):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		logger.Error("[HTTP] request failed", "path", c.FullPath(), "status", status, "err", err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
