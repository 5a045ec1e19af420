package contextkey

import "context"

type key string

// Keys under which the JWT middleware stores what it learned from a request.
const (
	UserIDKey   key = "userID"
	EmailKey    key = "email"
	JwtErrorKey key = "jwtError"
)

// UserID returns the authenticated user id stored in ctx.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(UserIDKey).(string)
	return id, ok && id != ""
}

// JwtError returns the token error stored in ctx, if any.
func JwtError(ctx context.Context) error {
	err, _ := ctx.Value(JwtErrorKey).(error)
	return err
}
