package httpx

import (
	"context"
	"net/http"
	"strconv"
)

// HeaderUserID carries the authenticated customer id, set by the fronting
// auth layer.
const HeaderUserID = "X-User-ID"

type ownerKey struct{}

// RequireOwner rejects requests without a valid customer id.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), id)))
	})
}

func WithOwner(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ownerKey{}, id)
}

// Owner returns the id stored by RequireOwner, or 0.
func Owner(ctx context.Context) int64 {
	id, _ := ctx.Value(ownerKey{}).(int64)
	return id
}
