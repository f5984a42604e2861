package middlewares

import (
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vermietung-backend/services"
)

func errorApp(err error) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/boom", func(c *fiber.Ctx) error { return err })
	return app
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"conflict", &services.ConflictError{UnitID: 3, Start: now, End: now.Add(time.Hour), OtherBookingID: 7}, http.StatusConflict, "conflict"},
		{"immutable", &services.ImmutableError{BookingID: 5, Reason: "invoice INV-000001 is posted"}, http.StatusConflict, "immutable"},
		{"no open period", &services.NoOpenPeriodError{Date: now}, http.StatusUnprocessableEntity, "no_open_period"},
		{"validation", &services.ValidationError{Field: "amount", Reason: "must be greater than zero"}, http.StatusBadRequest, "validation"},
		{"reversal", &services.ReversalError{BookingID: 5, Items: []services.ReversalItemError{{PaymentID: 2, Err: errors.New("row locked")}}}, http.StatusConflict, "reversal_failed"},
		{"remote failure", &services.RemoteFailure{Op: "availability query", Err: errors.New("connection reset")}, http.StatusBadGateway, "remote_failure"},
		{"not found", services.ErrNotFound, http.StatusNotFound, "not found"},
		{"fiber error", fiber.ErrTeapot, http.StatusTeapot, "Teapot"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := errorApp(tc.err)
			req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Contains(t, string(body), tc.body)
		})
	}
}

func TestErrorHandlerWrappedDomainError(t *testing.T) {
	wrapped := &services.RemoteFailure{Op: "load invoices", Err: errors.New("timeout")}
	app := errorApp(wrapped)
	req, _ := http.NewRequest(http.MethodGet, "/boom", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
