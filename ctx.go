package atelier

import "context"

var userCtxKey = &contextKey{"user"}
var sessionCtxKey = &contextKey{"session"}

type contextKey struct {
	name string
}

// WithUserContext sets the resolved user in the given context
func WithUserContext(ctx context.Context, user *UserSummary) context.Context {
	return context.WithValue(ctx, userCtxKey, user)
}

// UserFromContext finds the user from the context.
func UserFromContext(ctx context.Context) (*UserSummary, bool) {
	raw, ok := ctx.Value(userCtxKey).(*UserSummary)
	return raw, ok
}

// WithSessionContext sets a session snapshot in the given context
func WithSessionContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext finds the session snapshot from the context.
func SessionFromContext(ctx context.Context) (Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(Session)
	return raw, ok
}

// IsAdminFromContext is a convenience check for rendering code that only
// has a context. Route admission goes through Guard, not this.
func IsAdminFromContext(ctx context.Context) bool {
	user, ok := UserFromContext(ctx)
	if !ok {
		return false
	}
	return user.IsAdmin()
}
