package middleware

import (
	"dinerhub/internal/common"
	"dinerhub/internal/services"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const tokenContextKey = "token"

// JWTMiddleware verifies the bearer token, rejects revoked sessions and
// attaches the caller's Principal to the request context.
func JWTMiddleware(authSvc services.AuthService) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: tokenContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return authSvc.ParseToken(auth)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return common.SendAppError(c, common.NewUnauthorizedError("missing or invalid token"))
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims, ok := c.Get(tokenContextKey).(*services.TokenClaims)
			if !ok {
				return common.SendAppError(c, common.NewUnauthorizedError("missing or invalid token"))
			}

			ctx := c.Request().Context()
			if err := authSvc.CheckSession(ctx, claims); err != nil {
				return common.SendAppError(c, err)
			}
			principal, err := claims.Principal()
			if err != nil {
				return common.SendAppError(c, common.NewUnauthorizedError(err.Error()))
			}

			c.SetRequest(c.Request().WithContext(common.WithPrincipal(ctx, principal)))
			return next(c)
		})
	}
}

// Principal returns the authenticated caller or nil.
func Principal(c echo.Context) *common.Principal {
	p, _ := common.PrincipalFromContext(c.Request().Context())
	return p
}
