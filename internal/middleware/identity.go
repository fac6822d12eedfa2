package middleware

// identity.go defines helper functions shared across middleware files. It
// provides user identity extraction for building rate-limit keys: the
// user_id value stored by JWTAuth is normalized to a string, with "anon"
// returned for unauthenticated requests.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the Echo context for use
// in rate-limit keys. JWTAuth stores the raw "sub" claim, whose concrete
// type depends on how the token was encoded, so the plausible numeric
// types are handled as well as strings. Returns "anon" when no user is
// authenticated.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	}
	return "anon"
}
