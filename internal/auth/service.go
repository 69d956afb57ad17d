package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/techtribe/techtribe/internal/domain"
	"github.com/techtribe/techtribe/internal/logging"
)

// AdminStore is the account storage the service needs.
// *store.AdminStore satisfies it.
type AdminStore interface {
	Create(ctx context.Context, u domain.AdminUser) (domain.AdminUser, error)
	ByEmail(ctx context.Context, email string) (domain.AdminUser, error)
	Get(ctx context.Context, id string) (domain.AdminUser, error)
}

// Session is returned by Register and Login.
type Session struct {
	Token string           `json:"token"`
	User  domain.AdminUser `json:"user"`
}

// Registration is a request to create an operator account.
type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"admin_secret"`
}

// Service authenticates operators.
type Service struct {
	admins      AdminStore
	tokens      *JWTVerifier
	ttl         time.Duration
	adminSecret string
	log         *logging.Logger
}

// NewService creates an auth service. An empty adminSecret disables
// self-registration over the API.
func NewService(admins AdminStore, tokens *JWTVerifier, ttl time.Duration, adminSecret string, log *logging.Logger) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		admins:      admins,
		tokens:      tokens,
		ttl:         ttl,
		adminSecret: adminSecret,
		log:         log.Sub("auth"),
	}
}

// Register creates an operator when the request carries the admin secret.
func (s *Service) Register(ctx context.Context, r Registration) (Session, error) {
	if s.adminSecret == "" ||
		subtle.ConstantTimeCompare([]byte(r.AdminSecret), []byte(s.adminSecret)) != 1 {
		return Session{}, fmt.Errorf("%w: invalid admin secret", domain.ErrForbidden)
	}
	user, err := s.CreateAdmin(ctx, r.Name, r.Email, r.Password)
	if err != nil {
		return Session{}, err
	}
	return s.session(user)
}

// CreateAdmin validates and stores a new operator. It does not check the
// admin secret and is used by the CLI.
func (s *Service) CreateAdmin(ctx context.Context, name, email, password string) (domain.AdminUser, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return domain.AdminUser{}, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return domain.AdminUser{}, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	if password == "" {
		return domain.AdminUser{}, fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("hashing password: %w", err)
	}
	user, err := s.admins.Create(ctx, domain.AdminUser{
		Name:         name,
		Email:        email,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	})
	if errors.Is(err, domain.ErrConflict) {
		return domain.AdminUser{}, fmt.Errorf("%w: email already registered", domain.ErrInvalidInput)
	}
	if err != nil {
		return domain.AdminUser{}, err
	}
	return user, nil
}

// Login checks credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	user, err := s.admins.ByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		CheckPassword("", password)
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}
	if err != nil {
		return Session{}, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		s.log.Debug().Str("email", user.Email).Msg("password mismatch")
		return Session{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}
	return s.session(user)
}

// Token issues a token for an existing operator.
func (s *Service) Token(ctx context.Context, email string) (string, error) {
	user, err := s.admins.ByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	return s.tokens.Generate(user.ID, s.ttl)
}

// Authenticate resolves a bearer token to an existing operator. Any
// failure is reported as domain.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, token string) (domain.AdminUser, error) {
	id, err := s.tokens.Verify(token)
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	user, err := s.admins.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.AdminUser{}, fmt.Errorf("%w: unknown operator", domain.ErrUnauthorized)
	}
	if err != nil {
		return domain.AdminUser{}, err
	}
	return user, nil
}

func (s *Service) session(user domain.AdminUser) (Session, error) {
	token, err := s.tokens.Generate(user.ID, s.ttl)
	if err != nil {
		return Session{}, fmt.Errorf("signing token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}
