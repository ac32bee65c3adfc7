package postgres

import (
	"time"

	moduleDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/module"
	"github.com/gleeworld/gleeworld/internal/module"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ModuleRepository implements the module.Repository interface using GORM
type ModuleRepository struct {
	db *gorm.DB
}

func NewModuleRepository(db *gorm.DB) module.Repository {
	return &ModuleRepository{db: db}
}

func (r *ModuleRepository) GetAll() ([]*module.Module, error) {
	var rows []*moduleDatamodel.Module
	err := r.db.Order("sort_order ASC, name ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return module.FromDataModelSlice(rows), nil
}

func (r *ModuleRepository) GetActive() ([]*module.Module, error) {
	var rows []*moduleDatamodel.Module
	err := r.db.Where("is_active = ?", true).
		Order("sort_order ASC, name ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return module.FromDataModelSlice(rows), nil
}

func (r *ModuleRepository) GetByName(name string) (*module.Module, error) {
	var row moduleDatamodel.Module
	err := r.db.Where("name = ?", name).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, module.ErrModuleNotFound
		}
		return nil, err
	}
	return module.FromDataModel(&row), nil
}

// Upsert inserts the module or updates its display fields on name conflict.
func (r *ModuleRepository) Upsert(m *module.Module) error {
	row := module.ToDataModel(m)
	row.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "category", "is_active", "sort_order", "updated_at",
		}),
	}).Create(row).Error
}

func (r *ModuleRepository) SetActive(name string, active bool) error {
	result := r.db.Model(&moduleDatamodel.Module{}).
		Where("name = ?", name).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return module.ErrModuleNotFound
	}
	return nil
}
