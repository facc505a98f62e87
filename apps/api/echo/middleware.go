package echoapi

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tathmini/core/user"
	metricsvc "github.com/trezcool/tathmini/services/metrics"
)

// sessionMiddleware rejects tokens whose session was revoked (logout, password reset, deleted account)
// and loads the session's user into the context.
func sessionMiddleware(svc user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}

			reqCtx := ctx.Request().Context()
			sess, err := svc.GetSession(reqCtx, claims.Id)
			if err != nil {
				if errors.Cause(err) == user.ErrSessionNotFound {
					return errSessionRevoked
				}
				return errors.Wrap(err, "getting session")
			}
			usr, err := svc.GetByID(reqCtx, sess.UserID)
			if err != nil {
				if errors.Cause(err) == user.ErrNotFound {
					return errSessionRevoked
				}
				return errors.Wrap(err, "getting session user")
			}

			ctx.Set(contextSessionKey, sess)
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// roleMiddleware only lets users with one of the given roles through.
func roleMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			for _, role := range roles {
				if usr.Role == role {
					return next(ctx)
				}
			}
			return errHTTPForbidden
		}
	}
}

func metricsMiddleware(m *metricsvc.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			start := time.Now()
			err := next(ctx)
			if err != nil {
				ctx.Error(err) // commits the response so its status is known
			}
			route := ctx.Path()
			if route == "" {
				route = "unmatched"
			}
			m.ObserveRequest(ctx.Request().Method, route, ctx.Response().Status, time.Since(start))
			return nil
		}
	}
}
