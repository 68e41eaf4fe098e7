package sessions

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/auth"
)

func routerAs(h *Handler, actor auth.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), actor)))
		})
	})
	r.Route("/sessions", h.MountRoutes)
	r.Route("/questions", h.MountQuestionRoutes)
	return r
}

func call(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rr
}

func TestHandlerSessionLifecycle(t *testing.T) {
	h := NewHandler(nil, NewService(newMemoryRepo()))
	asOwner := routerAs(h, owner)
	asAdmin := routerAs(h, admin)

	rr := call(asOwner, http.MethodPost, "/sessions", `{"title":"Mock","start_time":"2025-03-01T10:00:00Z","end_time":"2025-03-01T09:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(asOwner, http.MethodPost, "/sessions", `{"title":"Mock","start_time":"2025-03-01T10:00:00Z","interviewer_id":"not-a-uuid"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = call(asOwner, http.MethodPost, "/sessions", `{"title":"Mock","start_time":"2025-03-01T10:00:00Z"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var id string
	for k := range h.service.repo.(*memoryRepo).sessions {
		id = k
	}

	rr = call(asOwner, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.JSONEq(t, `{"message":"forbidden","error":"forbidden"}`, rr.Body.String())

	rr = call(asAdmin, http.MethodDelete, "/sessions/"+id, "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = call(asAdmin, http.MethodGet, "/sessions/"+id, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
