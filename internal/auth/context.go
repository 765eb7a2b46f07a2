package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/josh-kwaku/bizledger/internal/domain"
)

type principalKey struct{}

// Principal is the authenticated caller attached to a request context.
type Principal struct {
	UserID      uuid.UUID
	Email       string
	Role        string
	Permissions []string
}

func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	p, ok := PrincipalFromContext(ctx)
	return p.UserID, ok
}

// ActorFromContext returns the caller's user id, or the system user for
// scheduled and CLI runs that carry no principal.
func ActorFromContext(ctx context.Context) uuid.UUID {
	if id, ok := UserIDFromContext(ctx); ok && id != uuid.Nil {
		return id
	}
	return domain.SystemUserID
}
