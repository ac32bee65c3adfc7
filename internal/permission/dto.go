package permission

import "errors"

// UpsertGrantDTO is the admin request to write one grant row directly.
type UpsertGrantDTO struct {
	SubjectKind string `json:"subject_kind" validate:"required,oneof=role user"`
	SubjectID   string `json:"subject_id" validate:"required"`
	ModuleName  string `json:"module_name" validate:"required"`
	Kind        string `json:"permission_kind" validate:"required,oneof=view manage"`
	IsActive    bool   `json:"is_active"`
}

func (dto UpsertGrantDTO) Validate() error {
	if _, err := ParseSubjectKind(dto.SubjectKind); err != nil {
		return err
	}
	if dto.SubjectID == "" {
		return errors.New("subject_id is required")
	}
	if dto.ModuleName == "" {
		return errors.New("module_name is required")
	}
	if _, err := ParseKind(dto.Kind); err != nil {
		return err
	}
	return nil
}

// ToggleDTO is the matrix checkbox operation: flip one permission kind for a
// subject and module. The service cascades the manage-implies-view invariant.
type ToggleDTO struct {
	SubjectKind string `json:"subject_kind" validate:"required,oneof=role user"`
	SubjectID   string `json:"subject_id" validate:"required"`
	ModuleName  string `json:"module_name" validate:"required"`
	Kind        string `json:"permission_kind" validate:"required,oneof=view manage"`
	Enabled     bool   `json:"enabled"`
}

func (dto ToggleDTO) Validate() error {
	if _, err := ParseSubjectKind(dto.SubjectKind); err != nil {
		return err
	}
	if dto.SubjectID == "" {
		return errors.New("subject_id is required")
	}
	if dto.ModuleName == "" {
		return errors.New("module_name is required")
	}
	if _, err := ParseKind(dto.Kind); err != nil {
		return err
	}
	return nil
}

// DeleteGrantDTO physically removes a grant row.
type DeleteGrantDTO struct {
	SubjectKind string `json:"subject_kind" validate:"required,oneof=role user"`
	SubjectID   string `json:"subject_id" validate:"required"`
	ModuleName  string `json:"module_name" validate:"required"`
	Kind        string `json:"permission_kind" validate:"required,oneof=view manage"`
}

func (dto DeleteGrantDTO) Validate() error {
	if _, err := ParseSubjectKind(dto.SubjectKind); err != nil {
		return err
	}
	if dto.SubjectID == "" {
		return errors.New("subject_id is required")
	}
	if dto.ModuleName == "" {
		return errors.New("module_name is required")
	}
	if _, err := ParseKind(dto.Kind); err != nil {
		return err
	}
	return nil
}
