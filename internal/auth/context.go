package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/techtribe/techtribe/internal/domain"
)

type operatorKey struct{}

// WithOperator attaches the authenticated operator to ctx.
func WithOperator(ctx context.Context, op domain.AdminUser) context.Context {
	return context.WithValue(ctx, operatorKey{}, op)
}

// FromContext returns the operator attached by WithOperator.
func FromContext(ctx context.Context) (domain.AdminUser, bool) {
	op, ok := ctx.Value(operatorKey{}).(domain.AdminUser)
	return op, ok
}

// Bearer header errors
var (
	ErrMissingHeader = errors.New("missing authorization header")
	ErrBadHeader     = errors.New("invalid authorization header format")
)

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrMissingHeader
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrBadHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrBadHeader
	}
	return token, nil
}
