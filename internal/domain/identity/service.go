package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/telecare/telecare/internal/platform/auth"
)

var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoTherapist means no therapist account is provisioned. This is a
	// server misconfiguration, not a user error.
	ErrNoTherapist = errors.New("no therapist account configured")
)

type Service struct {
	users UserRepository
	// therapistEmail is the configured address of the single therapist
	// account; may be empty, in which case the first therapist found wins.
	therapistEmail string
}

func NewService(users UserRepository, therapistEmail string) *Service {
	return &Service{users: users, therapistEmail: therapistEmail}
}

// Register creates a patient account. The therapist account is provisioned
// through the CLI, never through the public API.
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Name: name, Email: email, PasswordHash: string(hash), Role: auth.RolePatient}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateTherapist provisions the therapist account. Used by the CLI.
func (s *Service) CreateTherapist(ctx context.Context, name, email, password string) (*User, error) {
	if existing, err := s.users.FirstByRole(ctx, auth.RoleTherapist); err == nil && existing != nil {
		return nil, fmt.Errorf("therapist account already exists (%s)", existing.Email)
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &User{
		Name:         strings.TrimSpace(name),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: string(hash),
		Role:         auth.RoleTherapist,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate verifies a login attempt and returns the user on success.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// GetUser returns a user by id.
func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// ListPatients returns the patient roster for the therapist dashboard.
func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.users.ListByRole(ctx, auth.RolePatient, limit, offset)
}

// ResolveTherapist returns the single active therapist account. Resolution
// order: the configured therapist email looked up with a role filter, falling
// back to the first user with the therapist role. Absence is ErrNoTherapist,
// which callers must treat as a hard configuration error.
func (s *Service) ResolveTherapist(ctx context.Context) (*User, error) {
	if s.therapistEmail != "" {
		u, err := s.users.GetByEmailAndRole(ctx, strings.ToLower(s.therapistEmail), auth.RoleTherapist)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
	}

	u, err := s.users.FirstByRole(ctx, auth.RoleTherapist)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoTherapist
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ResolveTherapistID is a convenience wrapper for callers that only need the id.
func (s *Service) ResolveTherapistID(ctx context.Context) (uuid.UUID, error) {
	u, err := s.ResolveTherapist(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return u.ID, nil
}
