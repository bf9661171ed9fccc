package middleware

import (
	"strings"

	"publication-system/config"
	"publication-system/helper"
	"publication-system/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ctxUserID = "user_id"
	ctxName   = "name"
	ctxRole   = "role"

	sysadminTokenHeader = "X-Sysadmin-Token"
)

type Claims struct {
	UserID uint            `json:"user_id"`
	Name   string          `json:"name"`
	Role   models.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// Auth validates the tokens issued by the auth service.
type Auth struct {
	jwt    config.JWT
	helper *helper.HTTPHelper
}

func NewAuth(jwtConfig config.JWT, h *helper.HTTPHelper) *Auth {
	return &Auth{jwt: jwtConfig, helper: h}
}

// Required rejects requests without a valid token.
func (a *Auth) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			a.helper.SendUnauthorizedError(c, "Authorization header required", a.helper.EmptyJsonMap())
			c.Abort()
			return
		}

		claims, err := a.parse(tokenString)
		if err != nil {
			a.helper.SendUnauthorizedError(c, "Invalid or expired token", a.helper.EmptyJsonMap())
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// Optional reads a token when one is present and otherwise lets the request
// through anonymously. An invalid token is still rejected.
func (a *Auth) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := a.parse(tokenString)
		if err != nil {
			a.helper.SendUnauthorizedError(c, "Invalid or expired token", a.helper.EmptyJsonMap())
			c.Abort()
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

func (a *Auth) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.jwt.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrSignatureInvalid
	}
	return claims, nil
}

// RequireRole must run after Required.
func (a *Auth) RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			a.helper.SendUnauthorizedError(c, "User role not found", a.helper.EmptyJsonMap())
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		a.helper.SendForbiddenError(c, "Insufficient permissions", a.helper.EmptyJsonMap())
		c.Abort()
	}
}

// ActorFrom returns the authenticated caller stored by Required or Optional.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	role, ok := c.Get(ctxRole)
	if !ok {
		return models.Actor{}, false
	}
	return models.Actor{UserID: c.GetUint(ctxUserID), Role: role.(models.UserRole)}, true
}

// bearerToken prefers the Authorization header and falls back to the
// system admin header.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || strings.TrimSpace(token) == "" {
			return "", false
		}
		return strings.TrimSpace(token), true
	}
	if token := strings.TrimSpace(c.GetHeader(sysadminTokenHeader)); token != "" {
		return token, true
	}
	return "", false
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxName, claims.Name)
	c.Set(ctxRole, claims.Role)
}
