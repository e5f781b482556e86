package utils

import (
	"context"
)

type contextKey string

const (
	UserIDKey   contextKey = "user_id"
	UsernameKey contextKey = "username"
	RoleKey     contextKey = "role"
)

// Anonymous is the role reported for requests without a bearer token.
const Anonymous = "anonymous"

func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDKey).(int64)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(UsernameKey).(string)
	return username, ok && username != ""
}

// GetRoleFromContext returns Anonymous when no authenticated user is attached.
func GetRoleFromContext(ctx context.Context) string {
	role, ok := ctx.Value(RoleKey).(string)
	if !ok || role == "" {
		return Anonymous
	}
	return role
}

func SetUserContext(ctx context.Context, userID int64, username, role string) context.Context {
	ctx = context.WithValue(ctx, UserIDKey, userID)
	ctx = context.WithValue(ctx, UsernameKey, username)
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}
