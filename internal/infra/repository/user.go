package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gatherd/gatherd/internal/domain"
	"github.com/gatherd/gatherd/internal/infra/database/models"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.User, error) {
	var record models.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError{Err: err}
	}
	return &domain.User{
		ID:          record.ID,
		Handle:      record.Handle,
		DisplayName: record.DisplayName,
	}, nil
}

// Ensure upserts the directory entry. Identities originate in the external
// identity provider; gatherd materializes them on first sight and refreshes
// handle and display name on later resolutions.
func (r *UserRepository) Ensure(ctx context.Context, user domain.User) error {
	record := models.User{
		ID:          user.ID,
		Handle:      user.Handle,
		DisplayName: user.DisplayName,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"handle", "display_name"}),
	}).Create(&record).Error
	if err != nil {
		return domain.StorageError{Err: err}
	}
	return nil
}
