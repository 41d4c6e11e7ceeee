package common

import "context"

type ctxKey string

const userIDKey ctxKey = "auth/telegram-user-id"

// WithUserID stores the authenticated Telegram user identifier on the context.
func WithUserID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated Telegram user identifier if present.
func UserID(ctx context.Context) (int64, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
