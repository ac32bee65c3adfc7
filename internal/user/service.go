package user

import (
	"log/slog"

	"github.com/gleeworld/gleeworld/pkg/logger"
)

// Repository provides profile lookups for auth, notification fan-out and
// the directory endpoints.
type Repository interface {
	GetByUserID(userID string) (*Profile, error)
	GetByEmail(email string) (*Profile, error)
	ListByRole(role string) ([]*Profile, error)
	ListActive() ([]*Profile, error)
	ListExecBoard() ([]*Profile, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository) *Service {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Service{repo: repo, logger: lg}
}

func (s *Service) GetProfile(userID string) (*Profile, error) {
	return s.repo.GetByUserID(userID)
}

func (s *Service) ListByRole(role string) ([]*Profile, error) {
	return s.repo.ListByRole(role)
}

func (s *Service) ListActive() ([]*Profile, error) {
	return s.repo.ListActive()
}

func (s *Service) ListExecBoard() ([]*Profile, error) {
	return s.repo.ListExecBoard()
}
