package api

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"squad-markets/internal/leaderboard"
)

// TestRespondLeaderboardErrorMapping tests the core-error to HTTP status
// mapping
func TestRespondLeaderboardErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	server := &Server{logger: zerolog.Nop()}

	cases := []struct {
		err        error
		wantStatus int
	}{
		{leaderboard.ErrAccessDenied, 403},
		{leaderboard.ErrSquadNotFound, 404},
		{leaderboard.ErrNoLeaderboardData, 400},
		{errors.New("pg connection refused"), 500},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest("GET", "/squads/s1/leaderboard", nil)

		server.respondLeaderboardError(c, "s1", tc.err)

		if w.Code != tc.wantStatus {
			t.Errorf("Error %v: expected status %d, got %d", tc.err, tc.wantStatus, w.Code)
		}
	}
}

// TestRateLimiter tests per-key limiting within the window
func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("1.2.3.4") {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if limiter.Allow("1.2.3.4") {
		t.Error("Expected 4th request to be limited")
	}

	// Other keys are independent
	if !limiter.Allow("5.6.7.8") {
		t.Error("Expected a different key to be allowed")
	}
}
