package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/nestora/studio-api/internal/models"
	"github.com/nestora/studio-api/internal/repository"
	"gorm.io/gorm"
)

// ProjectService exposes read access to project records. Projects are
// created and edited by the main application; this service only reads them.
type ProjectService struct {
	projectRepo repository.ProjectRepository
}

// NewProjectService creates a new project service
func NewProjectService(projectRepo repository.ProjectRepository) *ProjectService {
	return &ProjectService{projectRepo: projectRepo}
}

// List returns all projects, newest first
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	projects, err := s.projectRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// Get returns a project with its payment weeks preloaded in week order
func (s *ProjectService) Get(ctx context.Context, id uint) (*models.Project, error) {
	project, err := s.projectRepo.FindByIDWithWeeks(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load project %d: %w", id, err)
	}
	return project, nil
}
