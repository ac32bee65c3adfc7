package user

import "time"

// Profile mirrors gw_profiles, the membership record behind every subject.
type Profile struct {
	ID           int64     `gorm:"primaryKey"`
	UserID       string    `gorm:"column:user_id;uniqueIndex;not null"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	FullName     string    `gorm:"column:full_name"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Phone        *string   `gorm:"column:phone"`
	Role         string    `gorm:"column:role;default:member"`
	VoicePart    *string   `gorm:"column:voice_part"`
	IsSuperAdmin bool      `gorm:"column:is_super_admin;default:false"`
	IsExecBoard  bool      `gorm:"column:is_exec_board;default:false"`
	ExecPosition *string   `gorm:"column:exec_board_role"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (Profile) TableName() string {
	return "gw_profiles"
}
