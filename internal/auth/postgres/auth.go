package postgres

import (
	"database/sql"
	"errors"

	userDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/user"
	"github.com/gleeworld/gleeworld/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetCredentials(email string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT user_id, password_hash FROM gw_profiles WHERE email = ? AND is_active = true`

	row := r.db.Raw(query, email).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", user.ErrUserNotFound
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) GetProfile(userID string) (*user.Profile, error) {
	var row userDatamodel.Profile
	if err := r.db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, user.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&row), nil
}
