package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CreateDome rejects bad grids before touching the repository, so the
// zero-value handler is enough here.
func TestCreateDomeValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"missing name", `{"rows":5,"seats_in_row":10}`, "name is required"},
		{"zero rows", `{"name":"Lunar","rows":0,"seats_in_row":10}`, "rows and seats_in_row must be positive"},
		{"zero seats", `{"name":"Lunar","rows":5,"seats_in_row":0}`, "rows and seats_in_row must be positive"},
		// 70000 * 70000 would wrap uint32 capacity arithmetic
		{"rows beyond bound", `{"name":"Lunar","rows":70000,"seats_in_row":70000}`, "rows and seats_in_row must be at most 1000"},
		{"seats beyond bound", `{"name":"Lunar","rows":5,"seats_in_row":1001}`, "rows and seats_in_row must be at most 1000"},
	}

	h := &CatalogHandler{}
	e := echo.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/domes", strings.NewReader(tc.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()
			require.NoError(t, h.CreateDome(e.NewContext(req, rec)))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.want)
		})
	}
}
