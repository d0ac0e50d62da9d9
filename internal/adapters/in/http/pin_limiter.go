package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// DefaultPinVerifyRate caps PIN submissions per order. It sits in front of
// the attempt counter so a client cannot burn through the attempts in a burst.
var DefaultPinVerifyRate = limiter.Rate{Period: time.Minute, Limit: 5}

func newPinLimiter(rate limiter.Rate) *limiter.Limiter {
	if rate.Limit <= 0 || rate.Period <= 0 {
		rate = DefaultPinVerifyRate
	}
	return limiter.New(memory.NewStore(), rate)
}

// limitPerOrder keys the limiter by the {id} path parameter.
func limitPerOrder(l *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lctx, err := l.Get(c.Request().Context(), "pin:"+c.Param("id"))
			if err != nil {
				return err
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				return c.JSON(http.StatusTooManyRequests, ErrorResponse{
					Code:    "rate_limited",
					Message: "too many pin verification attempts",
					Details: map[string]any{"retry_at": time.Unix(lctx.Reset, 0).UTC()},
				})
			}
			return next(c)
		}
	}
}
