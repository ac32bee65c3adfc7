package permission

import (
	"fmt"
	"time"

	permissionDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/permission"
)

// SubjectKind says whether a grant targets a whole role or a single user.
type SubjectKind string

const (
	SubjectRole SubjectKind = "role"
	SubjectUser SubjectKind = "user"
)

func ParseSubjectKind(s string) (SubjectKind, error) {
	switch SubjectKind(s) {
	case SubjectRole, SubjectUser:
		return SubjectKind(s), nil
	}
	return "", fmt.Errorf("invalid subject kind %q", s)
}

// Kind is the permission level of a grant. Manage implies view; the write
// side keeps that invariant, the resolver relies on it.
type Kind string

const (
	KindView   Kind = "view"
	KindManage Kind = "manage"
)

func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindView, KindManage:
		return Kind(s), nil
	}
	return "", fmt.Errorf("invalid permission kind %q", s)
}

// Application roles. RoleSuperAdmin is displayed as "Director" in the UI and
// RoleDirector is its legacy alias; both bypass stored grants entirely.
const (
	RoleMember        = "member"
	RoleSectionLeader = "section-leader"
	RoleExecutive     = "executive"
	RoleAlumna        = "alumna"
	RoleFan           = "fan"
	RoleSuperAdmin    = "super-admin"
	RoleDirector      = "director"
)

// Subject is the identity the resolver computes access for.
type Subject struct {
	UserID       string `json:"user_id,omitempty"`
	Role         string `json:"role"`
	ExecPosition string `json:"exec_position,omitempty"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

// IsAdministrator reports whether the subject gets the unconditional
// full-access override.
func (s Subject) IsAdministrator() bool {
	return s.IsSuperAdmin || s.Role == RoleSuperAdmin || s.Role == RoleDirector
}

// Grant is a stored permission record linking a subject to a module.
type Grant struct {
	ID          int64       `json:"id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	ModuleName  string      `json:"module_name"`
	Kind        Kind        `json:"permission_kind"`
	IsActive    bool        `json:"is_active"`
	GrantedBy   *string     `json:"granted_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Access is the derived per-module pair of booleans; it is never stored.
type Access struct {
	CanAccess bool `json:"can_access"`
	CanManage bool `json:"can_manage"`
}

// Restriction limits a module to subjects matching a role or executive
// position list. Empty lists impose no constraint.
type Restriction struct {
	RequiredRoles         []string
	RequiredExecPositions []string
}

// Matches reports whether the subject satisfies the restriction.
func (r Restriction) Matches(s Subject) bool {
	if len(r.RequiredRoles) > 0 {
		found := false
		for _, role := range r.RequiredRoles {
			if s.Role == role {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(r.RequiredExecPositions) > 0 {
		found := false
		for _, pos := range r.RequiredExecPositions {
			if s.ExecPosition == pos {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// DefaultRestrictions mirrors the capability gating the admin UI ships with:
// the permissions matrix is super-admin territory and budget management is
// reserved for the treasurer.
func DefaultRestrictions() map[string]Restriction {
	return map[string]Restriction{
		"permissions": {RequiredRoles: []string{RoleSuperAdmin, RoleDirector}},
		"budgets":     {RequiredExecPositions: []string{"treasurer"}},
	}
}

func ToDataModel(g *Grant) *permissionDatamodel.Grant {
	return &permissionDatamodel.Grant{
		ID:             g.ID,
		SubjectKind:    string(g.SubjectKind),
		SubjectID:      g.SubjectID,
		ModuleName:     g.ModuleName,
		PermissionKind: string(g.Kind),
		IsActive:       g.IsActive,
		GrantedBy:      g.GrantedBy,
		CreatedAt:      g.CreatedAt,
		UpdatedAt:      g.UpdatedAt,
	}
}

func FromDataModel(g *permissionDatamodel.Grant) *Grant {
	return &Grant{
		ID:          g.ID,
		SubjectKind: SubjectKind(g.SubjectKind),
		SubjectID:   g.SubjectID,
		ModuleName:  g.ModuleName,
		Kind:        Kind(g.PermissionKind),
		IsActive:    g.IsActive,
		GrantedBy:   g.GrantedBy,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*permissionDatamodel.Grant) []*Grant {
	result := make([]*Grant, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
