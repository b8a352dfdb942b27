package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"agromart-be/internal/utils"

	"github.com/stretchr/testify/assert"
)

func TestResolveRateTier(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		tier   string
	}{
		{"Bid mutation is strict", "POST", "/api/bids", "strict"},
		{"Order mutation is strict", "POST", "/api/orders/1/status", "strict"},
		{"Cashout mutation is strict", "POST", "/api/wallet/cashouts", "strict"},
		{"Crop browsing uses browse tier", "GET", "/api/crops", "browse"},
		{"Bid listing is general", "GET", "/api/bids", "general"},
		{"Auth is general", "POST", "/api/auth/login", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			_, _, tier := resolveRateTier(req)
			assert.Equal(t, tt.tier, tier)
		})
	}
}

func TestRateLimitMiddlewareStrict(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	// Burst for the strict tier is 5; the 6th immediate request must fail.
	var lastCode int
	for i := 0; i < burstStrict+1; i++ {
		req := httptest.NewRequest("POST", "/api/bids", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), 999, "x@example.com", "BUYER"))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		lastCode = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimitSeparateQuotas(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(next)

	// Exhaust the strict quota for this user.
	for i := 0; i < burstStrict+1; i++ {
		req := httptest.NewRequest("POST", "/api/orders", nil)
		req = req.WithContext(utils.SetUserContext(req.Context(), 1000, "y@example.com", "BUYER"))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	// General-tier requests for the same user still pass.
	req := httptest.NewRequest("GET", "/api/orders", nil)
	req = req.WithContext(utils.SetUserContext(req.Context(), 1000, "y@example.com", "BUYER"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
