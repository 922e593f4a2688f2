package handlers

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/Conceptual-Machines/magda-harmony/internal/database"
	"github.com/Conceptual-Machines/magda-harmony/internal/harmony"
	"github.com/Conceptual-Machines/magda-harmony/internal/services"
	"github.com/Conceptual-Machines/magda-harmony/internal/theory"
)

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid input", err: &harmony.InvalidInputError{Index: 2, Reason: "negative start"}, status: http.StatusBadRequest},
		{name: "chord symbol", err: &theory.InvalidChordSymbolError{Symbol: "Q"}, status: http.StatusBadRequest},
		{name: "options", err: &services.InvalidOptionsError{Reason: "count must be positive"}, status: http.StatusBadRequest},
		{name: "unharmonizable", err: &harmony.UnharmonizableSegmentError{Segment: 0, Start: new(big.Rat)}, status: http.StatusUnprocessableEntity},
		{name: "deadline", err: fmt.Errorf("solve: %w", context.DeadlineExceeded), status: http.StatusGatewayTimeout},
		{name: "missing run", err: database.ErrRunNotFound, status: http.StatusNotFound},
		{name: "no store", err: services.ErrPersistenceDisabled, status: http.StatusNotImplemented},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, tt.err)
			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "boom")
			}
		})
	}
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "5.50s", formatUptime(5500*time.Millisecond))
	assert.Equal(t, "2m3.00s", formatUptime(2*time.Minute+3*time.Second))
	assert.Equal(t, "1h0m1.00s", formatUptime(time.Hour+time.Second))
}
