package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserID(t *testing.T) {
	e := echo.New()
	tests := []struct {
		name    string
		value   interface{}
		want    uint64
		wantErr bool
	}{
		{name: "float64 from jwt claims", value: float64(42), want: 42},
		{name: "uint64", value: uint64(7), want: 7},
		{name: "int", value: 5, want: 5},
		{name: "numeric string", value: "13", want: 13},
		{name: "garbage string", value: "abc", wantErr: true},
		{name: "missing", value: nil, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			if tt.value != nil {
				c.Set("user_id", tt.value)
			}
			got, err := getUserID(c)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPageParam(t *testing.T) {
	e := echo.New()
	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 1},
		{query: "page=3", want: 3},
		{query: "page=0", want: 1},
		{query: "page=-2", want: 1},
		{query: "page=abc", want: 1},
	}
	for _, tt := range tests {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil), httptest.NewRecorder())
		assert.Equal(t, tt.want, pageParam(c), tt.query)
	}
}
