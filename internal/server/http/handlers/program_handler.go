package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Feel-The-AGI/workstream-server/internal/domain/model"
	"github.com/Feel-The-AGI/workstream-server/internal/server/http/dto"
	"github.com/Feel-The-AGI/workstream-server/internal/usecase"
)

// ProgramHandler manages program endpoints.
type ProgramHandler struct {
	facade ProgramFacade
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(facade ProgramFacade) *ProgramHandler {
	return &ProgramHandler{facade: facade}
}

// Create handles POST /api/programs.
func (h *ProgramHandler) Create(c *gin.Context) {
	principal := CurrentPrincipal(c)

	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Status(http.StatusBadRequest)
		return
	}

	program, err := h.facade.CreateProgram(c.Request.Context(), principal, usecase.CreateProgramParams{
		Title:       req.Title,
		Description: req.Description,
		TotalSlots:  req.TotalSlots,
		FeeAmount:   req.FeeAmount,
		Currency:    req.Currency,
	})
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusCreated, toProgramResponse(program))
}

// Publish handles POST /api/programs/:id/publish.
func (h *ProgramHandler) Publish(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	program, err := h.facade.PublishProgram(c.Request.Context(), principal.UserID, id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toProgramResponse(program))
}

// Close handles POST /api/programs/:id/close.
func (h *ProgramHandler) Close(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	program, err := h.facade.CloseProgram(c.Request.Context(), principal.UserID, id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toProgramResponse(program))
}

// Get handles GET /api/programs/:id.
func (h *ProgramHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	program, err := h.facade.Program(c.Request.Context(), id)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}

	c.JSON(http.StatusOK, toProgramResponse(program))
}

// List handles GET /api/programs.
func (h *ProgramHandler) List(c *gin.Context) {
	principal := CurrentPrincipal(c)

	programs, err := h.facade.OwnPrograms(c.Request.Context(), principal.UserID)
	if err != nil {
		c.Status(errorStatus(err))
		return
	}
	if len(programs) == 0 {
		c.Status(http.StatusNoContent)
		return
	}

	resp := make([]dto.ProgramResponse, 0, len(programs))
	for i := range programs {
		resp = append(resp, toProgramResponse(&programs[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// Applications handles GET /api/programs/:id/applications.
func (h *ProgramHandler) Applications(c *gin.Context) {
	principal := CurrentPrincipal(c)
	id, ok := pathID(c, "id")
	if !ok {
		c.Status(http.StatusBadRequest)
		return
	}

	applications, err := h.facade.ProgramApplications(c.Request.Context(), principal, id)
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

func toProgramResponse(p *model.Program) dto.ProgramResponse {
	return dto.ProgramResponse{
		ID:             p.ID,
		Title:          p.Title,
		Description:    p.Description,
		TotalSlots:     p.TotalSlots,
		AvailableSlots: p.AvailableSlots,
		FeeAmount:      p.FeeAmount,
		Currency:       p.Currency,
		Status:         string(p.Status),
		CreatedAt:      p.CreatedAt,
	}
}
