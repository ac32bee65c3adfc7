package postgres

import (
	"time"

	permissionDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/permission"
	"github.com/gleeworld/gleeworld/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GrantRepository implements the permission.Repository interface using GORM
type GrantRepository struct {
	db *gorm.DB
}

func NewGrantRepository(db *gorm.DB) permission.Repository {
	return &GrantRepository{db: db}
}

func (r *GrantRepository) ListGrants(kind permission.SubjectKind, subjectID string, moduleFilter string) ([]*permission.Grant, error) {
	query := r.db.Where("subject_kind = ? AND subject_id = ?", string(kind), subjectID)
	if moduleFilter != "" {
		query = query.Where("module_name = ?", moduleFilter)
	}

	var rows []*permissionDatamodel.Grant
	if err := query.Order("module_name ASC, permission_kind ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return permission.FromDataModelSlice(rows), nil
}

func (r *GrantRepository) UpsertGrant(g *permission.Grant) error {
	return upsertGrant(r.db, g)
}

// ApplyGrants writes the rows in order inside one transaction, so a toggle
// cascade either lands completely or not at all.
func (r *GrantRepository) ApplyGrants(grants []*permission.Grant) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, g := range grants {
			if err := upsertGrant(tx, g); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GrantRepository) DeleteGrant(kind permission.SubjectKind, subjectID, moduleName string, permKind permission.Kind) error {
	return r.db.
		Where("subject_kind = ? AND subject_id = ? AND module_name = ? AND permission_kind = ?",
			string(kind), subjectID, moduleName, string(permKind)).
		Delete(&permissionDatamodel.Grant{}).Error
}

func upsertGrant(db *gorm.DB, g *permission.Grant) error {
	row := permission.ToDataModel(g)
	row.UpdatedAt = time.Now()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = row.UpdatedAt
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "subject_kind"}, {Name: "subject_id"}, {Name: "module_name"}, {Name: "permission_kind"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"is_active", "granted_by", "updated_at"}),
	}).Create(row).Error
}
