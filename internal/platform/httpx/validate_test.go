package httpx

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockround/mockround/internal/shared"
)

type bindTarget struct {
	Title string `json:"title" validate:"required,max=5"`
}

func TestBindReportsFieldFailures(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"far too long"}`))
	var target bindTarget
	err := Bind(req, validator.New(), &target)
	require.ErrorIs(t, err, shared.ErrValidation)
	assert.Contains(t, err.Error(), "title failed max=5")
}

func TestBindAcceptsValidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"title":"ok"}`))
	var target bindTarget
	require.NoError(t, Bind(req, validator.New(), &target))
	assert.Equal(t, "ok", target.Title)
}

func TestRateLimitRespondsWithJSON(t *testing.T) {
	h := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Contains(t, second.Body.String(), CodeRateLimited)
}
