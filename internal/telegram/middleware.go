package telegram

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/minishop/backend-minishop/internal/common"
)

// Auth authenticates requests by their Telegram Mini App initData. The raw
// payload travels in the Authorization header as a bearer value, with
// X-Telegram-Init-Data as an alternative for clients that cannot set it.
type Auth struct {
	BotToken string
	MaxAge   time.Duration
	Logger   zerolog.Logger
}

// Middleware rejects unverifiable requests and stores the Telegram user id
// in the request context for everything downstream.
func (a Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := rawInitData(r)
		if raw == "" {
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing Telegram credentials", nil)
			return
		}
		data, err := VerifyInitData(raw, a.BotToken, a.MaxAge)
		if err != nil {
			if errors.Is(err, ErrExpiredInitData) {
				common.JSONError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "session expired, reopen the app", nil)
				return
			}
			a.Logger.Debug().Err(err).Msg("init data verification failed")
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid Telegram credentials", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(common.WithUserID(r.Context(), data.User.ID)))
	})
}

func rawInitData(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if raw, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return raw
		}
		if raw, ok := strings.CutPrefix(auth, "tma "); ok {
			return raw
		}
	}
	return r.Header.Get("X-Telegram-Init-Data")
}
