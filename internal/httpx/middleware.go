package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-tour-booking.git/internal/users"
)

type ctxKey int

const userKey ctxKey = iota

type UserSource interface {
	GetByID(ctx context.Context, id string) (users.User, error)
}

// Identity me-resolve identitas dari X-User-ID (session/token diurus layer
// luar) lalu membaca role & status dari tabel users. Role claim dari client
// tidak pernah dipercaya langsung.
func Identity(src UserSource) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-User-ID")
			if id == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing identity"})
				return
			}
			u, err := src.GetByID(r.Context(), id)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unknown identity"})
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
		})
	}
}

func UserFrom(ctx context.Context) (users.User, bool) {
	u, ok := ctx.Value(userKey).(users.User)
	return u, ok
}
