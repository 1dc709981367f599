package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/repository"
	"github.com/nestora/studio-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubProjectRepository struct {
	repository.ProjectRepository
	project *models.Project
}

func (s *stubProjectRepository) FindByIDWithWeeks(ctx context.Context, id uint) (*models.Project, error) {
	if s.project != nil && s.project.ID == id {
		return s.project, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubProjectRepository) List(ctx context.Context) ([]models.Project, error) {
	if s.project == nil {
		return nil, nil
	}
	return []models.Project{*s.project}, nil
}

func stubProject() *models.Project {
	signup := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pct := 20.0
	return &models.Project{
		ID:               7,
		Name:             "Lakeview Apartments",
		ClientName:       "A. Subramanian",
		TotalCost:        1000000,
		SignupPercentage: &pct,
		SignupDate:       &signup,
		TotalWeeks:       10,
		PaymentWeeks: []models.PaymentWeek{
			{ID: 1, ProjectID: 7, WeekNo: 0, Percentage: 20, Status: models.WeekStatusPaid, IsSignupWeek: true},
		},
	}
}

func TestProjectShowIncludesWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProjectHandler(services.NewProjectService(&stubProjectRepository{project: stubProject()}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "project_id", Value: "7"}}

	handler.Show(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, true, body["has_signup"])
	assert.Equal(t, "2025-03-12", body["end_date"], "signup date plus 10 weeks")
	assert.Len(t, body["weeks"], 1)
}

func TestProjectShowUnknownProject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProjectHandler(services.NewProjectService(&stubProjectRepository{}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "project_id", Value: "7"}}

	handler.Show(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProjectIndex(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewProjectHandler(services.NewProjectService(&stubProjectRepository{project: stubProject()}))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	handler.Index(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Projects []models.ProjectResponse `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Projects, 1)
	assert.Equal(t, "Lakeview Apartments", body.Projects[0].Name)
	assert.Equal(t, 1, body.Projects[0].ScheduledWeeks)
}
