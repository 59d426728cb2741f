package handler

import (
	"context"
	"net/http"
	"strconv"

	"rfid-admin-service/internal/repository/redis"
	"rfid-admin-service/internal/util"
)

type contextKey string

const ownerIDKey contextKey = "cpo_owner_id"

// OwnerHeader carries the authenticated merchant tenant's id. The gateway in
// front of this service validates the credential and injects the header;
// here it is only parsed and scoped.
const OwnerHeader = "X-CPO-Owner-ID"

// OwnerIdentity rejects requests without a usable tenant id and stores the
// parsed id in the request context for every handler downstream.
func OwnerIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(OwnerHeader)
		ownerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || ownerID <= 0 {
			writeError(w, http.StatusUnauthorized, "Missing or invalid "+OwnerHeader+" header")
			return
		}

		ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFromContext(ctx context.Context) int64 {
	ownerID, _ := ctx.Value(ownerIDKey).(int64)
	return ownerID
}

// RateLimit applies the per-tenant fixed window. A cache failure fails open:
// losing rate limiting briefly beats refusing every admin request.
func RateLimit(cache *redis.RateLimitCache) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ownerID := ownerFromContext(r.Context())

			allowed, err := cache.Allow(r.Context(), strconv.FormatInt(ownerID, 10))
			if err != nil {
				util.Warn("Rate limit check failed", util.ErrorField(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
