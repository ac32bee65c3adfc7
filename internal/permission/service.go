package permission

import (
	"context"
	"log/slog"
	"time"

	"github.com/gleeworld/gleeworld/internal/module"
	"github.com/gleeworld/gleeworld/internal/realtime"
)

// Repository interface defines the data access methods for grants
type Repository interface {
	ListGrants(kind SubjectKind, subjectID string, moduleFilter string) ([]*Grant, error)
	UpsertGrant(g *Grant) error
	// ApplyGrants upserts the given rows in order inside one transaction.
	ApplyGrants(grants []*Grant) error
	DeleteGrant(kind SubjectKind, subjectID, moduleName string, permKind Kind) error
}

// Service resolves effective access and enforces the manage-implies-view
// invariant on every write path.
type Service struct {
	repo                   Repository
	registry               *module.Registry
	restrictions           map[string]Restriction
	restrictionsBindAdmins bool
	publisher              realtime.Publisher
	logger                 *slog.Logger
}

func NewService(repo Repository, registry *module.Registry, restrictions map[string]Restriction, restrictionsBindAdmins bool, publisher realtime.Publisher, logger *slog.Logger) *Service {
	if restrictions == nil {
		restrictions = DefaultRestrictions()
	}
	if publisher == nil {
		publisher = realtime.NopPublisher{}
	}
	return &Service{
		repo:                   repo,
		registry:               registry,
		restrictions:           restrictions,
		restrictionsBindAdmins: restrictionsBindAdmins,
		publisher:              publisher,
		logger:                 logger,
	}
}

// EffectiveAccess computes the per-module access pair for a subject.
//
// Administrators (super-admin flag or director role) get full access to
// every active module before any stored grant is consulted. Everyone else
// gets the union of active role-level and user-level grants, with
// manage implying view, then restriction filters applied last.
func (s *Service) EffectiveAccess(subject Subject) (map[string]Access, error) {
	modules := s.registry.Active()
	result := make(map[string]Access, len(modules))

	if subject.IsAdministrator() && !s.restrictionsBindAdmins {
		for _, m := range modules {
			result[m.Name] = Access{CanAccess: true, CanManage: true}
		}
		return result, nil
	}

	var views, manages map[string]bool
	if subject.IsAdministrator() {
		// Admin bypass still wins over grants, only restrictions may trim it.
		views = make(map[string]bool, len(modules))
		manages = make(map[string]bool, len(modules))
		for _, m := range modules {
			views[m.Name] = true
			manages[m.Name] = true
		}
	} else {
		var err error
		views, manages, err = s.collectGrants(subject)
		if err != nil {
			return nil, err
		}
	}

	for _, m := range modules {
		access := Access{
			CanAccess: views[m.Name] || manages[m.Name],
			CanManage: manages[m.Name],
		}
		if restriction, ok := s.restrictions[m.Name]; ok && !restriction.Matches(subject) {
			access = Access{}
		}
		result[m.Name] = access
	}

	return result, nil
}

func (s *Service) collectGrants(subject Subject) (views, manages map[string]bool, err error) {
	views = make(map[string]bool)
	manages = make(map[string]bool)

	roleGrants, err := s.repo.ListGrants(SubjectRole, subject.Role, "")
	if err != nil {
		s.logger.Error("failed to list role grants", "error", err, "role", subject.Role)
		return nil, nil, err
	}
	accumulate(roleGrants, views, manages)

	if subject.UserID != "" {
		userGrants, err := s.repo.ListGrants(SubjectUser, subject.UserID, "")
		if err != nil {
			s.logger.Error("failed to list user grants", "error", err, "user_id", subject.UserID)
			return nil, nil, err
		}
		accumulate(userGrants, views, manages)
	}

	return views, manages, nil
}

func accumulate(grants []*Grant, views, manages map[string]bool) {
	for _, g := range grants {
		if !g.IsActive {
			continue
		}
		switch g.Kind {
		case KindView:
			views[g.ModuleName] = true
		case KindManage:
			manages[g.ModuleName] = true
		}
	}
}

// ListGrants returns stored grants for a subject, optionally filtered by module.
func (s *Service) ListGrants(kind SubjectKind, subjectID, moduleFilter string) ([]*Grant, error) {
	grants, err := s.repo.ListGrants(kind, subjectID, moduleFilter)
	if err != nil {
		s.logger.Error("failed to list grants", "error", err, "subject_kind", kind, "subject_id", subjectID)
		return nil, err
	}
	return grants, nil
}

// Toggle flips one permission kind for a subject and module, cascading the
// dependent grant so manage never outlives view. All writes for one toggle
// land in a single transaction; on failure the caller re-fetches
// authoritative state instead of trusting any optimistic copy.
func (s *Service) Toggle(ctx context.Context, dto ToggleDTO, grantedBy string) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, ok := s.registry.Get(dto.ModuleName); !ok {
		return module.ErrModuleNotFound
	}

	kind := Kind(dto.Kind)
	subjectKind := SubjectKind(dto.SubjectKind)

	existing, err := s.repo.ListGrants(subjectKind, dto.SubjectID, dto.ModuleName)
	if err != nil {
		s.logger.Error("toggle: failed to read current grants", "error", err,
			"subject_kind", subjectKind, "subject_id", dto.SubjectID, "module", dto.ModuleName)
		return err
	}

	active := map[Kind]bool{}
	for _, g := range existing {
		if g.IsActive {
			active[g.Kind] = true
		}
	}

	writes := s.cascadeWrites(subjectKind, dto.SubjectID, dto.ModuleName, kind, dto.Enabled, active, grantedBy)
	if len(writes) == 0 {
		return nil
	}

	if err := s.repo.ApplyGrants(writes); err != nil {
		s.logger.Error("toggle: failed to apply grants", "error", err,
			"subject_kind", subjectKind, "subject_id", dto.SubjectID, "module", dto.ModuleName, "kind", kind)
		return err
	}

	s.logger.Info("permission toggled",
		"subject_kind", subjectKind,
		"subject_id", dto.SubjectID,
		"module", dto.ModuleName,
		"kind", kind,
		"enabled", dto.Enabled,
		"writes", len(writes))

	s.publishChange(ctx, dto.SubjectID)
	return nil
}

// cascadeWrites orders the rows so dependent grants are written first:
// enabling manage grants view before manage, disabling view revokes manage
// before view.
func (s *Service) cascadeWrites(subjectKind SubjectKind, subjectID, moduleName string, kind Kind, enabled bool, active map[Kind]bool, grantedBy string) []*Grant {
	row := func(k Kind, isActive bool) *Grant {
		g := &Grant{
			SubjectKind: subjectKind,
			SubjectID:   subjectID,
			ModuleName:  moduleName,
			Kind:        k,
			IsActive:    isActive,
			UpdatedAt:   time.Now(),
		}
		if grantedBy != "" {
			g.GrantedBy = &grantedBy
		}
		return g
	}

	var writes []*Grant
	switch {
	case kind == KindManage && enabled:
		if !active[KindView] {
			writes = append(writes, row(KindView, true))
		}
		writes = append(writes, row(KindManage, true))
	case kind == KindView && !enabled:
		if active[KindManage] {
			writes = append(writes, row(KindManage, false))
		}
		writes = append(writes, row(KindView, false))
	case kind == KindView && enabled:
		writes = append(writes, row(KindView, true))
	case kind == KindManage && !enabled:
		writes = append(writes, row(KindManage, false))
	}
	return writes
}

// UpsertGrant writes one grant directly, still honoring the invariant.
func (s *Service) UpsertGrant(ctx context.Context, dto UpsertGrantDTO, grantedBy string) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	if _, ok := s.registry.Get(dto.ModuleName); !ok {
		return module.ErrModuleNotFound
	}

	toggle := ToggleDTO{
		SubjectKind: dto.SubjectKind,
		SubjectID:   dto.SubjectID,
		ModuleName:  dto.ModuleName,
		Kind:        dto.Kind,
		Enabled:     dto.IsActive,
	}
	return s.Toggle(ctx, toggle, grantedBy)
}

// DeleteGrant physically removes a grant row. Deleting view also removes
// manage so the invariant holds for hard deletes too.
func (s *Service) DeleteGrant(ctx context.Context, dto DeleteGrantDTO) error {
	if err := dto.Validate(); err != nil {
		return err
	}

	kind := Kind(dto.Kind)
	subjectKind := SubjectKind(dto.SubjectKind)

	if kind == KindView {
		if err := s.repo.DeleteGrant(subjectKind, dto.SubjectID, dto.ModuleName, KindManage); err != nil {
			s.logger.Error("failed to delete dependent manage grant", "error", err,
				"subject_id", dto.SubjectID, "module", dto.ModuleName)
			return err
		}
	}

	if err := s.repo.DeleteGrant(subjectKind, dto.SubjectID, dto.ModuleName, kind); err != nil {
		s.logger.Error("failed to delete grant", "error", err,
			"subject_id", dto.SubjectID, "module", dto.ModuleName, "kind", kind)
		return err
	}

	s.publishChange(ctx, dto.SubjectID)
	return nil
}

func (s *Service) publishChange(ctx context.Context, subjectID string) {
	ev := realtime.ChangeEvent{
		Table:  "gw_module_permissions",
		Action: realtime.ActionUpdate,
		UserID: subjectID,
		At:     time.Now(),
	}
	if err := s.publisher.PublishChange(ctx, ev); err != nil {
		s.logger.Warn("failed to publish permission change", "error", err, "subject_id", subjectID)
	}
}
