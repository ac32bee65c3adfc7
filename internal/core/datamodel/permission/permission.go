package permission

import "time"

// Grant is one stored permission row. The unique index makes
// (subject_kind, subject_id, module_name, permission_kind) the upsert key.
type Grant struct {
	ID             int64     `gorm:"primaryKey"`
	SubjectKind    string    `gorm:"column:subject_kind;uniqueIndex:idx_grant_subject_module_kind,priority:1;not null"`
	SubjectID      string    `gorm:"column:subject_id;uniqueIndex:idx_grant_subject_module_kind,priority:2;not null"`
	ModuleName     string    `gorm:"column:module_name;uniqueIndex:idx_grant_subject_module_kind,priority:3;not null"`
	PermissionKind string    `gorm:"column:permission_kind;uniqueIndex:idx_grant_subject_module_kind,priority:4;not null"`
	IsActive       bool      `gorm:"column:is_active;default:true"`
	GrantedBy      *string   `gorm:"column:granted_by"`
	CreatedAt      time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt      time.Time `gorm:"column:updated_at;default:now()"`
}

func (Grant) TableName() string {
	return "gw_module_permissions"
}
