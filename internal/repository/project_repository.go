package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"taskcycle/internal/model"
)

// ProjectRepository manages task projects.
type ProjectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// GetOrCreate finds a project by name for the user, creating it when
// absent. An empty name yields no project.
func (r *ProjectRepository) GetOrCreate(ctx context.Context, userID uint, name string) (*model.Project, error) {
	if name == "" {
		return nil, nil
	}

	var project model.Project
	db := r.db.WithContext(ctx)
	err := db.Where("user_id = ? AND name = ?", userID, name).First(&project).Error
	switch {
	case err == nil:
		return &project, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		project = model.Project{UserID: userID, Name: name}
		if err := db.Create(&project).Error; err != nil {
			return nil, fmt.Errorf("create project: %w", err)
		}
		return &project, nil
	default:
		return nil, fmt.Errorf("find project: %w", err)
	}
}
