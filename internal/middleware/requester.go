package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/jwalitptl/medrec-api/internal/handler"
	"github.com/jwalitptl/medrec-api/internal/model"
)

const requesterKey = "requester"

// RequesterMiddleware extracts the requester identity from the JWT
// bearer token. Scoped queries fail without one; there is no
// see-everything default.
type RequesterMiddleware struct {
	secret []byte
}

func NewRequesterMiddleware(secret string) *RequesterMiddleware {
	return &RequesterMiddleware{secret: []byte(secret)}
}

func (m *RequesterMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		requester, err := m.parse(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		c.Set(requesterKey, requester)
		c.Next()
	}
}

func (m *RequesterMiddleware) parse(token string) (*model.Requester, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrSignatureInvalid
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}

	role, _ := claims["role"].(string)
	return &model.Requester{ID: id, Role: model.Role(role)}, nil
}

// RequesterFromContext returns the authenticated requester, if any.
func RequesterFromContext(c *gin.Context) *model.Requester {
	if v, ok := c.Get(requesterKey); ok {
		if requester, ok := v.(*model.Requester); ok {
			return requester
		}
	}
	return nil
}
