package composables

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stratify-hq/stratify/pkg/constants"
	"github.com/stratify-hq/stratify/pkg/policy"
)

var (
	ErrNoPrincipal = errors.New("no principal found in context")
	ErrNoTenantID  = errors.New("no tenant id found in context")
	ErrNoLogger    = errors.New("logger not found")
)

func WithPrincipal(ctx context.Context, p policy.Principal) context.Context {
	return context.WithValue(ctx, constants.PrincipalKey, p)
}

func UsePrincipal(ctx context.Context) (policy.Principal, error) {
	p, ok := ctx.Value(constants.PrincipalKey).(policy.Principal)
	if !ok {
		return policy.Principal{}, ErrNoPrincipal
	}
	return p, nil
}

func WithTenantID(ctx context.Context, tenantID uuid.UUID) context.Context {
	return context.WithValue(ctx, constants.TenantIDKey, tenantID)
}

// UseTenantID returns the tenant from the context, falling back to the
// principal's tenant when no explicit override is present.
func UseTenantID(ctx context.Context) (uuid.UUID, error) {
	if id, ok := ctx.Value(constants.TenantIDKey).(uuid.UUID); ok {
		return id, nil
	}
	if p, err := UsePrincipal(ctx); err == nil {
		return p.TenantID, nil
	}
	return uuid.Nil, ErrNoTenantID
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, constants.RequestIDKey, requestID)
}

// UseRequestID returns the request id, or "" when the context carries
// none.
func UseRequestID(ctx context.Context) string {
	id, _ := ctx.Value(constants.RequestIDKey).(string)
	return id
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request-scoped logger, or a plain one when the
// context carries none.
func UseLogger(ctx context.Context) *logrus.Entry {
	if entry, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return entry
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
