package httpx

import "context"

type ctxKey string

const (
	CtxKeyUserID    ctxKey = "user_id"
	CtxKeyCompanyID ctxKey = "company_id"
)

// UserIDFromContext returns the authenticated user ID, or "" when the
// request carries no session.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyUserID).(string); ok {
		return v
	}
	return ""
}

// CompanyIDFromContext returns the tenant of the authenticated user, or "".
func CompanyIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyCompanyID).(string); ok {
		return v
	}
	return ""
}
