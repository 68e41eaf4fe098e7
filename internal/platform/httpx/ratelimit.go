package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns a per-client limiter answering 429 with a JSON body.
// Clients are keyed by IP unless keyFuncs are given.
func RateLimit(limit int, window time.Duration, keyFuncs ...httprate.KeyFunc) func(http.Handler) http.Handler {
	if len(keyFuncs) == 0 {
		keyFuncs = []httprate.KeyFunc{httprate.KeyByIP}
	}
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(keyFuncs...),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			Error(w, http.StatusTooManyRequests, "too many requests", CodeRateLimited)
		}),
	)
}
