package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/dto"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

// ApplicationHandler manages application lifecycle endpoints.
type ApplicationHandler struct {
	facade ApplicationFacade
}

// NewApplicationHandler constructs ApplicationHandler.
func NewApplicationHandler(facade ApplicationFacade) *ApplicationHandler {
	return &ApplicationHandler{facade: facade}
}

// Create handles POST /api/applications.
func (h *ApplicationHandler) Create(c *gin.Context) {
	principal := CurrentPrincipal(c)

	var req dto.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProgramID <= 0 {
		c.Status(http.StatusBadRequest)
		return
	}

	application, err := h.facade.CreateApplication(c.Request.Context(), principal, req.ProgramID, usecase.DraftFields{
		Motivation:   req.Motivation,
		PortfolioURL: req.PortfolioURL,
	})
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusCreated, toApplicationResponse(application))
}

// List handles GET /api/applications.
func (h *ApplicationHandler) List(c *gin.Context) {
	principal := CurrentPrincipal(c)

	applications, err := h.facade.MyApplications(c.Request.Context(), principal.UserID)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}
	if len(applications) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.ApplicationResponse, 0, len(applications))
	for i := range applications {
		resp = append(resp, toApplicationResponse(&applications[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/applications/:id.
func (h *ApplicationHandler) Get(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	application, err := h.facade.Application(c.Request.Context(), principal, id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toApplicationResponse(application))
}

// UpdateDraft handles PATCH /api/applications/:id.
func (h *ApplicationHandler) UpdateDraft(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.UpdateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	patch := model.DraftPatch{
		Motivation:   patchField(req.Motivation),
		PortfolioURL: patchField(req.PortfolioURL),
	}
	application, err := h.facade.UpdateDraft(c.Request.Context(), principal.UserID, id, patch)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toApplicationResponse(application))
}

// Submit handles POST /api/applications/:id/submit.
func (h *ApplicationHandler) Submit(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	application, err := h.facade.SubmitApplication(c.Request.Context(), principal.UserID, id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toApplicationResponse(application))
}

// Advance handles POST /api/applications/:id/advance.
func (h *ApplicationHandler) Advance(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	var req dto.AdvanceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	to := model.ApplicationStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	application, err := h.facade.AdvanceApplication(c.Request.Context(), principal, id, to, req.Notes, req.InterviewAt)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toApplicationResponse(application))
}

// Cancel handles POST /api/applications/:id/cancel.
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	application, err := h.facade.CancelApplication(c.Request.Context(), principal.UserID, id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toApplicationResponse(application))
}

func toApplicationResponse(a *model.Application) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:           a.ID,
		Number:       a.Number,
		ProgramID:    a.ProgramID,
		Status:       string(a.Status),
		Motivation:   a.Motivation,
		PortfolioURL: a.PortfolioURL,
		ReviewNotes:  a.ReviewNotes,
		SubmittedAt:  a.SubmittedAt,
		InterviewAt:  a.InterviewAt,
		DecidedAt:    a.DecidedAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}
