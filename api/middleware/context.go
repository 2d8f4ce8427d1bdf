package middleware

import "context"

type contextKey string

const (
	ctxStaffID        contextKey = "staff_id"
	ctxStaffName      contextKey = "staff_name"
	ctxRole           contextKey = "actor_role"
	ctxBusinessUnitID contextKey = "business_unit_id"
)

func StaffIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffID).(string); ok {
		return v
	}
	return ""
}

func StaffNameFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffName).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func BusinessUnitIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBusinessUnitID).(string); ok {
		return v
	}
	return ""
}

// WithStaff injects the staff identity into the context for downstream handlers.
func WithStaff(ctx context.Context, staffID, staffName string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxStaffID, staffID)
	return context.WithValue(ctx, ctxStaffName, staffName)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithBusinessUnitID injects the business unit identifier into the context.
func WithBusinessUnitID(ctx context.Context, businessUnitID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBusinessUnitID, businessUnitID)
}
