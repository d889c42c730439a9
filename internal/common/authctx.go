package common

import "context"

type ctxKey string

const (
	staffIDKey   ctxKey = "auth/staff-id"
	staffRoleKey ctxKey = "auth/staff-role"
)

// WithStaffID stores the authenticated staff identifier on the context.
func WithStaffID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, staffIDKey, id)
}

// StaffID extracts the authenticated staff identifier from the context.
func StaffID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(staffIDKey).(string)
	return id, ok
}

// WithStaffRole stores the authenticated staff role on the context.
func WithStaffRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, staffRoleKey, role)
}

// StaffRole extracts the staff role from the context.
func StaffRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(staffRoleKey).(string)
	return role, ok
}
