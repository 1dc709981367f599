package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/services"
)

// ProjectHandler serves the read-only project endpoints
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Index lists all projects
func (h *ProjectHandler) Index(c *gin.Context) {
	projects, err := h.projectService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	var responses []models.ProjectResponse
	for i := range projects {
		responses = append(responses, projects[i].ToResponse())
	}

	c.JSON(http.StatusOK, gin.H{"projects": responses})
}

// Show returns a single project with its scheduled weeks
func (h *ProjectHandler) Show(c *gin.Context) {
	id, ok := paramUint(c, "project_id")
	if !ok {
		return
	}

	project, err := h.projectService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	weeks := make([]models.PaymentWeekResponse, 0, len(project.PaymentWeeks))
	for i := range project.PaymentWeeks {
		weeks = append(weeks, project.PaymentWeeks[i].ToResponse(project.TotalCost))
	}

	payload := gin.H{
		"project":    project.ToResponse(),
		"weeks":      weeks,
		"has_signup": project.HasSignup(),
	}
	if end, ok := project.ProjectEndDate(); ok {
		payload["end_date"] = end.Format("2006-01-02")
	}

	c.JSON(http.StatusOK, payload)
}
