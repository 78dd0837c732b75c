package echoapi

import (
	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/noodle/core/auth"
)

const contextTokenKey = "userToken"

// appJWTConfig builds the JWT auth middleware config around the signing key in
// use; there is no package-level key state.
func appJWTConfig(signingKey []byte) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    signingKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(auth.Claims),
	}
}

func contextSession(ctx echo.Context) (auth.Session, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*auth.Claims); ok {
			return claims.Session(), nil
		}
	}
	return auth.Session{}, errInvalidJWT
}
