package auth

import (
	"github.com/gleeworld/gleeworld/internal/user"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the narrow profile access auth needs. Credentials are
// read raw so the password hash never crosses into the user domain model.
type UserRepository interface {
	GetCredentials(email string) (passwordHash string, userID string, err error)
	GetProfile(userID string) (*user.Profile, error)
}

// ServiceAPI is what the HTTP layer consumes.
type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetProfile(userID string) (*user.Profile, error)
}

type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, bcryptCost int) *Service {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	storedHash, userID, err := s.userRepo.GetCredentials(dto.Email)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}

	profile, err := s.userRepo.GetProfile(userID)
	if err != nil {
		return AuthTokens{}, ErrInvalidCredentials
	}
	if !profile.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(profile)
}

// RefreshTokens validates a refresh token and rotates the pair.
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if claims.TokenType != tokenTypeRefresh {
		return AuthTokens{}, ErrInvalidToken
	}

	profile, err := s.userRepo.GetProfile(claims.UserID)
	if err != nil {
		return AuthTokens{}, ErrInvalidToken
	}
	if !profile.IsActive {
		return AuthTokens{}, ErrUserInactive
	}

	return s.issueTokens(profile)
}

func (s *Service) issueTokens(profile *user.Profile) (AuthTokens, error) {
	accessToken, err := s.tokenGenerator.GenerateAccessToken(profile.UserID, profile.Email, profile.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(profile.UserID, profile.Email, profile.Role)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ValidateAccessToken validates an access token and returns its claims.
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	claims, err := s.tokenGenerator.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != tokenTypeAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// UserIDFromToken validates a token and returns the user it belongs to.
// The websocket upgrade path authenticates with this.
func (s *Service) UserIDFromToken(tokenString string) (string, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

func (s *Service) GetProfile(userID string) (*user.Profile, error) {
	return s.userRepo.GetProfile(userID)
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
