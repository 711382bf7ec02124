package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/streamgroup/errors"
)

// ContextKeyClaims is the gin.Context key holding validated JWT claims.
const ContextKeyClaims = "jwt_claims"

// JWTConfig configures bearer token authentication.
type JWTConfig struct {
	// Secret is the HMAC key used to verify HS256 tokens.
	Secret string
	// Issuer, when set, must match the token's iss claim.
	Issuer string
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string
}

// JWTAuth validates HS256 bearer tokens. Validated registered claims are
// stored under ContextKeyClaims; failures abort with a 401 AppError body.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{gojwt.SigningMethodHS256.Alg()}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(cfg.Issuer))
	}
	parser := gojwt.NewParser(opts...)
	key := []byte(cfg.Secret)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abort(c, apperrors.Unauthorized("Authorization header required."))
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, apperrors.Unauthorized("Invalid authorization header format."))
			return
		}

		claims := &gojwt.RegisteredClaims{}
		_, err := parser.ParseWithClaims(parts[1], claims, func(*gojwt.Token) (interface{}, error) {
			return key, nil
		})
		if err != nil {
			abort(c, tokenError(err))
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Next()
	}
}

// ClaimsFromContext returns the claims stored by JWTAuth, if any.
func ClaimsFromContext(c *gin.Context) (*gojwt.RegisteredClaims, bool) {
	v, ok := c.Get(ContextKeyClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*gojwt.RegisteredClaims)
	return claims, ok
}

func tokenError(err error) *apperrors.AppError {
	if errors.Is(err, gojwt.ErrTokenExpired) {
		return apperrors.TokenExpired().WithCause(err)
	}
	return apperrors.InvalidToken().WithCause(fmt.Errorf("jwt: %w", err))
}

func abort(c *gin.Context, appErr *apperrors.AppError) {
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}
