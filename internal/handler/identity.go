package handler // handler defines http handlers

import (
	"errors"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getUserID extracts the user_id placed in the context by JWTAuth and
// converts it to uint64.  JSON numbers in JWT claims decode as float64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		if t > 0 {
			return uint64(t), nil
		}
	case int64:
		if t > 0 {
			return uint64(t), nil
		}
	case float64:
		// Fractional or out-of-range ids are not truncated into a real user.
		if t > 0 && t < math.MaxUint64 && t == math.Trunc(t) {
			return uint64(t), nil
		}
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil && n > 0 {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// getRole returns the role claim placed in the context by JWTAuth.
func getRole(c echo.Context) string {
	s, _ := c.Get("role").(string)
	return s
}

// parseUintParam parses a positive numeric path parameter.
func parseUintParam(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}
