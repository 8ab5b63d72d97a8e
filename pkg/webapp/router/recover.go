package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deescovery/deescovery/internal/errors"
	"github.com/deescovery/deescovery/pkg/log"
)

// Recover turns a panicking handler into an error response and logs the stack at debug level.
func Recover(l log.Logger) echo.MiddlewareFunc {
	l = log.OrDiscard(l)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) (er error) {
			defer errors.Recover(func(err error) {
				l.Debugf("%s", errors.ErrorStack(err))
				er = err
			})

			return next(ctx)
		}
	}
}
