package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/techtribe/techtribe/internal/domain"
)

// AdminStore persists operator accounts.
type AdminStore struct {
	db *DB
}

// NewAdminStore creates an admin store using the given database.
func NewAdminStore(db *DB) *AdminStore {
	return &AdminStore{db: db}
}

// Create stores a new operator. Emails are unique regardless of case;
// a duplicate yields domain.ErrConflict.
func (s *AdminStore) Create(ctx context.Context, u domain.AdminUser) (domain.AdminUser, error) {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = domain.RoleAdmin
	}
	u.Email = strings.TrimSpace(u.Email)
	u.CreatedAt = s.db.now().UTC()

	_, err := s.db.sql.ExecContext(ctx,
		`INSERT INTO admin_users (id, name, email, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, formatTime(u.CreatedAt),
	)
	if isUniqueViolation(err) {
		return domain.AdminUser{}, fmt.Errorf("admin %q: %w", u.Email, domain.ErrConflict)
	}
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("inserting admin: %w", err)
	}
	s.db.log.Info().Str("id", u.ID).Str("email", u.Email).Msg("admin created")
	return u, nil
}

// ByEmail looks an operator up by email, ignoring case.
func (s *AdminStore) ByEmail(ctx context.Context, email string) (domain.AdminUser, error) {
	return s.getOne(ctx, `WHERE email = ? COLLATE NOCASE`, strings.TrimSpace(email))
}

// Get returns an operator by id.
func (s *AdminStore) Get(ctx context.Context, id string) (domain.AdminUser, error) {
	return s.getOne(ctx, `WHERE id = ?`, id)
}

// Count returns the number of operators.
func (s *AdminStore) Count(ctx context.Context) (int, error) {
	return count(ctx, s.db, `SELECT COUNT(*) FROM admin_users`)
}

func (s *AdminStore) getOne(ctx context.Context, where string, arg any) (domain.AdminUser, error) {
	var u domain.AdminUser
	var createdAt string
	err := s.db.sql.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, role, created_at FROM admin_users `+where, arg,
	).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &createdAt)
	if err != nil {
		return domain.AdminUser{}, notFound(err, "admin")
	}
	u.CreatedAt = parseTime(createdAt)
	return u, nil
}
