package module

import (
	"errors"
	"time"

	moduleDatamodel "github.com/gleeworld/gleeworld/internal/core/datamodel/module"
)

// Module is a named unit of application functionality subject to access
// control, e.g. "budgets" or "attendance".
type Module struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrModuleNotFound = errors.New("module not found")
)

// Defaults is the static module set the application ships with. The seeder
// writes these into gw_modules; the registry falls back to them when the
// table is empty.
func Defaults() []*Module {
	defs := []struct {
		name, title, category string
	}{
		{"announcements", "Announcements", "community"},
		{"calendar", "Calendar", "community"},
		{"member-directory", "Member Directory", "community"},
		{"handbook", "Handbook", "community"},
		{"attendance", "Attendance", "operations"},
		{"contracts", "Contracts", "operations"},
		{"dues", "Dues", "finance"},
		{"budgets", "Budgets", "finance"},
		{"stipends", "Stipend Payments", "finance"},
		{"music-library", "Music Library", "artistic"},
		{"wardrobe", "Wardrobe", "operations"},
		{"messaging", "Messaging", "communication"},
		{"tasks", "Tasks", "operations"},
		{"permissions", "Permissions", "admin"},
	}

	now := time.Now()
	modules := make([]*Module, len(defs))
	for i, d := range defs {
		modules[i] = &Module{
			Name:      d.name,
			Title:     d.title,
			Category:  d.category,
			IsActive:  true,
			SortOrder: i,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return modules
}

func ToDataModel(m *Module) *moduleDatamodel.Module {
	return &moduleDatamodel.Module{
		ID:          m.ID,
		Name:        m.Name,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		IsActive:    m.IsActive,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromDataModel(m *moduleDatamodel.Module) *Module {
	return &Module{
		ID:          m.ID,
		Name:        m.Name,
		Title:       m.Title,
		Description: m.Description,
		Category:    m.Category,
		IsActive:    m.IsActive,
		SortOrder:   m.SortOrder,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*moduleDatamodel.Module) []*Module {
	result := make([]*Module, len(rows))
	for i, r := range rows {
		result[i] = FromDataModel(r)
	}
	return result
}
