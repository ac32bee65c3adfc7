package module_test

import (
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/gleeworld/gleeworld/internal/module"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestModuleService(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Module Service Suite")
}

// MockRepository implements module.Repository for testing
type MockRepository struct {
	modules    map[string]*module.Module
	shouldFail bool
	failError  error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{modules: make(map[string]*module.Module)}
}

func (m *MockRepository) GetAll() ([]*module.Module, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*module.Module
	for _, mod := range m.modules {
		result = append(result, mod)
	}
	return result, nil
}

func (m *MockRepository) GetActive() ([]*module.Module, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var result []*module.Module
	for _, mod := range m.modules {
		if mod.IsActive {
			result = append(result, mod)
		}
	}
	return result, nil
}

func (m *MockRepository) GetByName(name string) (*module.Module, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	mod, ok := m.modules[name]
	if !ok {
		return nil, module.ErrModuleNotFound
	}
	return mod, nil
}

func (m *MockRepository) Upsert(mod *module.Module) error {
	if m.shouldFail {
		return m.failError
	}
	m.modules[mod.Name] = mod
	return nil
}

func (m *MockRepository) SetActive(name string, active bool) error {
	if m.shouldFail {
		return m.failError
	}
	mod, ok := m.modules[name]
	if !ok {
		return module.ErrModuleNotFound
	}
	mod.IsActive = active
	return nil
}

func (m *MockRepository) SetShouldFail(shouldFail bool, err error) {
	m.shouldFail = shouldFail
	m.failError = err
}

func (m *MockRepository) AddModule(mod *module.Module) {
	m.modules[mod.Name] = mod
}

var _ = Describe("Module Service", func() {
	var (
		mockRepo *MockRepository
		logger   *slog.Logger
	)

	BeforeEach(func() {
		mockRepo = NewMockRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	})

	Describe("LoadRegistry", func() {
		Context("when the table has rows", func() {
			BeforeEach(func() {
				mockRepo.AddModule(&module.Module{Name: "attendance", Title: "Attendance", IsActive: true})
				mockRepo.AddModule(&module.Module{Name: "budgets", Title: "Budgets", IsActive: false})
			})

			It("should load exactly those modules", func() {
				registry, err := module.LoadRegistry(mockRepo, logger)
				Expect(err).NotTo(HaveOccurred())
				Expect(registry.All()).To(HaveLen(2))
				Expect(registry.Active()).To(HaveLen(1))
			})
		})

		Context("when the table is empty", func() {
			It("should fall back to the static defaults", func() {
				registry, err := module.LoadRegistry(mockRepo, logger)
				Expect(err).NotTo(HaveOccurred())
				Expect(registry.All()).To(HaveLen(len(module.Defaults())))
				_, ok := registry.Get("permissions")
				Expect(ok).To(BeTrue())
			})
		})

		Context("when the repository fails", func() {
			It("should return the error", func() {
				mockRepo.SetShouldFail(true, errors.New("database error"))
				registry, err := module.LoadRegistry(mockRepo, logger)
				Expect(err).To(HaveOccurred())
				Expect(registry).To(BeNil())
			})
		})
	})

	Describe("Registry", func() {
		It("should order modules by sort order", func() {
			registry := module.NewRegistry([]*module.Module{
				{Name: "c", IsActive: true, SortOrder: 2},
				{Name: "a", IsActive: true, SortOrder: 0},
				{Name: "b", IsActive: true, SortOrder: 1},
			}, logger)

			active := registry.Active()
			Expect(active).To(HaveLen(3))
			Expect(active[0].Name).To(Equal("a"))
			Expect(active[1].Name).To(Equal("b"))
			Expect(active[2].Name).To(Equal("c"))
		})

		It("should hide inactive modules from Active but not All", func() {
			registry := module.NewRegistry([]*module.Module{
				{Name: "a", IsActive: true},
				{Name: "b", IsActive: false},
			}, logger)

			Expect(registry.Active()).To(HaveLen(1))
			Expect(registry.All()).To(HaveLen(2))
		})

		It("should swap the snapshot on Reload", func() {
			registry := module.NewRegistry([]*module.Module{{Name: "a", IsActive: true}}, logger)
			registry.Reload([]*module.Module{
				{Name: "a", IsActive: true},
				{Name: "b", IsActive: true},
			})
			Expect(registry.Active()).To(HaveLen(2))
		})
	})

	Describe("SetActive", func() {
		var (
			registry *module.Registry
			service  *module.Service
		)

		BeforeEach(func() {
			mockRepo.AddModule(&module.Module{Name: "attendance", Title: "Attendance", IsActive: true})
			var err error
			registry, err = module.LoadRegistry(mockRepo, logger)
			Expect(err).NotTo(HaveOccurred())
			service = module.NewService(mockRepo, registry, logger)
		})

		It("should flip the flag and refresh the registry", func() {
			Expect(service.SetActive("attendance", false)).To(Succeed())
			Expect(registry.Active()).To(BeEmpty())

			m, ok := registry.Get("attendance")
			Expect(ok).To(BeTrue())
			Expect(m.IsActive).To(BeFalse())
		})

		It("should reject unknown modules", func() {
			err := service.SetActive("no-such-module", false)
			Expect(err).To(MatchError(module.ErrModuleNotFound))
		})
	})

	Describe("Defaults", func() {
		It("should include the access controlled surfaces", func() {
			names := make([]string, 0)
			for _, m := range module.Defaults() {
				names = append(names, m.Name)
			}
			Expect(names).To(ContainElements("permissions", "budgets", "attendance", "tasks", "messaging"))
		})

		It("should ship everything active", func() {
			for _, m := range module.Defaults() {
				Expect(m.IsActive).To(BeTrue(), m.Name)
			}
		})
	})
})
