package auth

import "context"

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
	RoleTeacher Role = "teacher"
)

// User is the authenticated caller attached to a request context.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsStaff reports whether the user may operate the point of sale.
func (u User) IsStaff() bool {
	return u.Role == RoleAdmin || u.Role == RoleCashier
}

type contextKey string

const userKey contextKey = "current_user"

func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

func UserFromContext(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey).(User)
	return u, ok
}

// UserID is a shortcut for handlers that only log the caller.
func UserID(ctx context.Context) string {
	if u, ok := UserFromContext(ctx); ok {
		return u.ID
	}
	return ""
}
