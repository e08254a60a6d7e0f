package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/productsearch/observe"
)

// PrincipalKey is the gin context key holding the caller principal.
const PrincipalKey = "principal"

// Middleware enforces authn on every request it wraps. A nil authn lets
// every request through with AnonymousIdentity.
func Middleware(authn Authenticator, logger observe.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if authn == nil {
			c.Request = c.Request.WithContext(WithIdentity(ctx, AnonymousIdentity()))
			c.Next()
			return
		}

		req := &AuthRequest{Headers: c.Request.Header, Resource: c.Request.URL.Path}
		if !authn.Supports(ctx, req) {
			abort(c, ErrMissingCredentials)
			return
		}

		result, err := authn.Authenticate(ctx, req)
		if err != nil {
			logger.Error(ctx, "authentication failed", observe.Field{Key: "error", Value: err.Error()})
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		if !result.Authenticated {
			logger.Debug(ctx, "request rejected",
				observe.Field{Key: "method", Value: result.Method},
				observe.Field{Key: "reason", Value: errorString(result.Error)},
			)
			abort(c, result.Error)
			return
		}

		c.Set(PrincipalKey, result.Identity.Principal)
		c.Request = c.Request.WithContext(WithIdentity(ctx, result.Identity))
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	msg := "unauthorized"
	if errors.Is(err, ErrTokenExpired) {
		msg = "token expired"
	}
	c.Header("WWW-Authenticate", `Bearer realm="productsearch"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
