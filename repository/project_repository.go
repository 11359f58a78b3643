package repository

import (
	"context"
	"fmt"
	"time"

	"musewave/logger"
	"musewave/model"

	"gorm.io/gorm"
)

// ProjectRepository defines the interface for project record operations.
// Records are insert-only; there is no update path.
type ProjectRepository interface {
	CreateProject(ctx context.Context, record *model.ProjectRecord) error
	GetProjectByID(ctx context.Context, projectID string) (*model.ProjectRecord, error)
	ListProjects(ctx context.Context, limit int) ([]*model.ProjectRecord, error)
	ListProjectsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.ProjectRecord, error)
}

// mysqlProjectRepository implements ProjectRepository on GORM/MySQL.
type mysqlProjectRepository struct {
	db *gorm.DB
}

// NewMySQLProjectRepository creates a new project repository.
func NewMySQLProjectRepository(db *gorm.DB) ProjectRepository {
	return &mysqlProjectRepository{db: db}
}

// CreateProject inserts a new project record.
func (r *mysqlProjectRepository) CreateProject(ctx context.Context, record *model.ProjectRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to insert project record %s: %w", record.ProjectID, err)
	}

	logger.Info("Project record created",
		logger.String("projectId", record.ProjectID),
		logger.String("audioUrl", record.AudioURL),
		logger.String("videoUrl", record.VideoURL))
	return nil
}

// GetProjectByID retrieves a project by its public UUID. Returns nil when not found.
func (r *mysqlProjectRepository) GetProjectByID(ctx context.Context, projectID string) (*model.ProjectRecord, error) {
	var record model.ProjectRecord
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&record).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query project %s: %w", projectID, err)
	}
	return &record, nil
}

// ListProjects returns records newest first, capped at limit.
func (r *mysqlProjectRepository) ListProjects(ctx context.Context, limit int) ([]*model.ProjectRecord, error) {
	if limit <= 0 {
		limit = 100
	}

	records := make([]*model.ProjectRecord, 0)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return records, nil
}

// ListProjectsCreatedBetween returns records created in [from, to], newest first.
func (r *mysqlProjectRepository) ListProjectsCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.ProjectRecord, error) {
	records := make([]*model.ProjectRecord, 0)
	err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", from, to).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list projects between %s and %s: %w", from, to, err)
	}
	return records, nil
}
