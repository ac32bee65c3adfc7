package user

import (
	"errors"
	"time"

	userDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/user"
	"github.com/gleeworld/gleeworld/internal/permission"
)

var ErrUserNotFound = errors.New("user not found")

// Profile is the membership record behind every authenticated subject.
type Profile struct {
	ID           int64     `json:"-"`
	UserID       string    `json:"user_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        *string   `json:"phone,omitempty"`
	Role         string    `json:"role"`
	VoicePart    *string   `json:"voice_part,omitempty"`
	IsSuperAdmin bool      `json:"is_super_admin"`
	IsExecBoard  bool      `json:"is_exec_board"`
	ExecPosition *string   `json:"exec_position,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayRole maps the stored role to what members actually see. Super
// admins present as Director.
func (p *Profile) DisplayRole() string {
	if p.IsSuperAdmin || p.Role == permission.RoleSuperAdmin {
		return "Director"
	}
	return p.Role
}

// Subject builds the identity the permission resolver works with.
func (p *Profile) Subject() permission.Subject {
	execPos := ""
	if p.ExecPosition != nil {
		execPos = *p.ExecPosition
	}
	return permission.Subject{
		UserID:       p.UserID,
		Role:         p.Role,
		ExecPosition: execPos,
		IsSuperAdmin: p.IsSuperAdmin,
	}
}

func FromDataModel(row *userDatamodel.Profile) *Profile {
	return &Profile{
		ID:           row.ID,
		UserID:       row.UserID,
		Email:        row.Email,
		FullName:     row.FullName,
		Phone:        row.Phone,
		Role:         row.Role,
		VoicePart:    row.VoicePart,
		IsSuperAdmin: row.IsSuperAdmin,
		IsExecBoard:  row.IsExecBoard,
		ExecPosition: row.ExecPosition,
		IsActive:     row.IsActive,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*userDatamodel.Profile) []*Profile {
	result := make([]*Profile, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
