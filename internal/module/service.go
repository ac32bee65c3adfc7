package module

import (
	"log/slog"
)

// Repository interface defines the data access methods for modules
type Repository interface {
	GetAll() ([]*Module, error)
	GetActive() ([]*Module, error)
	GetByName(name string) (*Module, error)
	Upsert(m *Module) error
	SetActive(name string, active bool) error
}

// Service keeps the registry snapshot in step with the gw_modules table.
type Service struct {
	repo     Repository
	registry *Registry
	logger   *slog.Logger
}

func NewService(repo Repository, registry *Registry, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		logger:   logger,
	}
}

// LoadRegistry builds the registry contents from the database, seeding the
// static defaults when the table is empty.
func LoadRegistry(repo Repository, logger *slog.Logger) (*Registry, error) {
	modules, err := repo.GetAll()
	if err != nil {
		return nil, err
	}

	if len(modules) == 0 {
		logger.Warn("gw_modules is empty, registry falling back to static defaults")
		modules = Defaults()
	}

	return NewRegistry(modules, logger), nil
}

func (s *Service) Registry() *Registry {
	return s.registry
}

func (s *Service) ListActive() ([]*Module, error) {
	return s.registry.Active(), nil
}

func (s *Service) ListAll() ([]*Module, error) {
	return s.registry.All(), nil
}

func (s *Service) GetByName(name string) (*Module, error) {
	if m, ok := s.registry.Get(name); ok {
		return m, nil
	}
	return nil, ErrModuleNotFound
}

// Upsert writes the module and refreshes the registry snapshot.
func (s *Service) Upsert(m *Module) error {
	if err := s.repo.Upsert(m); err != nil {
		s.logger.Error("failed to upsert module", "error", err, "module", m.Name)
		return err
	}
	return s.refresh()
}

// SetActive flips a module's active flag and refreshes the registry.
func (s *Service) SetActive(name string, active bool) error {
	if _, ok := s.registry.Get(name); !ok {
		return ErrModuleNotFound
	}

	if err := s.repo.SetActive(name, active); err != nil {
		s.logger.Error("failed to update module active flag", "error", err, "module", name, "active", active)
		return err
	}

	s.logger.Info("module active flag updated", "module", name, "active", active)
	return s.refresh()
}

func (s *Service) refresh() error {
	modules, err := s.repo.GetAll()
	if err != nil {
		s.logger.Error("failed to refresh module registry", "error", err)
		return err
	}
	s.registry.Reload(modules)
	return nil
}
