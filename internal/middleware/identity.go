package middleware

import (
	"fmt"
	"math"
	"strconv"

	"github.com/labstack/echo/v4"
)

// subject returns the authenticated user id as a string for use in
// Redis keys.  Requests that did not pass JWTAuth are keyed as "anon".
func subject(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case float64:
		if v > 0 && v < math.MaxUint64 && v == math.Trunc(v) {
			return strconv.FormatUint(uint64(v), 10)
		}
	case uint64:
		return strconv.FormatUint(v, 10)
	case nil:
	default:
		return fmt.Sprint(v)
	}
	return "anon"
}
