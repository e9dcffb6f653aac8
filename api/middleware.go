package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

type CtxKey string

const (
	CtxKeyLimit  CtxKey = "limit"
	CtxKeyOffset CtxKey = "offset"
	CtxKeyOwner  CtxKey = "owner"
)

const DefaultPageLimit = 50

func Paginate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limitStr := r.URL.Query().Get("limit")
		offsetStr := r.URL.Query().Get("offset")

		var err error
		limit := DefaultPageLimit
		if limitStr != "" {
			limit, err = strconv.Atoi(limitStr)
			if err != nil {
				limit = DefaultPageLimit
			}
		}

		offset := 0
		if offsetStr != "" {
			offset, err = strconv.Atoi(offsetStr)
			if err != nil {
				offset = 0
			}
		}

		ctx := context.WithValue(r.Context(), CtxKeyLimit, limit)
		ctx = context.WithValue(ctx, CtxKeyOffset, offset)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OwnerCtx reads the selling account from the X-Owner-ID header. Every
// data-plane route is scoped to an owner; a missing or malformed header is a
// client error, not an auth failure.
func OwnerCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ownerStr := r.Header.Get("X-Owner-ID")
		if ownerStr == "" {
			Render(w, r, ErrInvalidRequest(errors.New("X-Owner-ID header is required")))
			return
		}

		ownerID, err := strconv.ParseInt(ownerStr, 10, 64)
		if err != nil || ownerID < 1 {
			Render(w, r, ErrInvalidRequest(errors.New("invalid X-Owner-ID header")))
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyOwner, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func owner(r *http.Request) int64 {
	return r.Context().Value(CtxKeyOwner).(int64)
}

// AdminOnly guards operational routes with a shared key. Only the bcrypt hash
// of the key is held in configuration.
func AdminOnly(keyHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-Admin-Key")
			if key == "" || keyHash == "" {
				authErr(w)
				return
			}

			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				log.Warn().Str("remote", r.RemoteAddr).Msg("rejected admin request")
				authErr(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func authErr(w http.ResponseWriter) {
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}
