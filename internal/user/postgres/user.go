package postgres

import (
	"errors"

	userDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/user"
	"github.com/gleeworld/gleeworld/internal/user"
	"gorm.io/gorm"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) user.Repository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetByUserID(userID string) (*user.Profile, error) {
	var row userDatamodel.Profile
	if err := r.db.Where("user_id = ? AND is_active = true", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *ProfileRepository) GetByEmail(email string) (*user.Profile, error) {
	var row userDatamodel.Profile
	if err := r.db.Where("email = ? AND is_active = true", email).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}

func (r *ProfileRepository) ListByRole(role string) ([]*user.Profile, error) {
	var rows []*userDatamodel.Profile
	if err := r.db.Where("role = ? AND is_active = true", role).Order("full_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *ProfileRepository) ListActive() ([]*user.Profile, error) {
	var rows []*userDatamodel.Profile
	if err := r.db.Where("is_active = true").Order("full_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}

func (r *ProfileRepository) ListExecBoard() ([]*user.Profile, error) {
	var rows []*userDatamodel.Profile
	if err := r.db.Where("is_exec_board = true AND is_active = true").Order("full_name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return user.FromDataModelSlice(rows), nil
}
