package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/rogaciano/rotadomarPLM/internal/logger"
	"github.com/rogaciano/rotadomarPLM/internal/requestdata"
)

// IdentityMiddleware resolves the acting user from a JWT bearer token. It only
// establishes identity for audit stamping; authorization stays with the
// callers of the allocation core and is not checked here.
type IdentityMiddleware struct {
	log       *logger.Logger
	secretKey []byte
}

func NewIdentityMiddleware(log *logger.Logger, secretKey string) *IdentityMiddleware {
	return &IdentityMiddleware{
		log:       log.With("middleware", "IdentityMiddleware"),
		secretKey: []byte(secretKey),
	}
}

func (m *IdentityMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractBearer(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		userID, err := m.parseSubject(tokenString)
		if err != nil {
			m.log.Debug("Token rejected", "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		ctx := requestdata.WithRequestData(c.Request.Context(), &requestdata.RequestData{
			TokenString: tokenString,
			UserID:      userID,
		})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (m *IdentityMiddleware) parseSubject(tokenString string) (uuid.UUID, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	if !token.Valid {
		return uuid.Nil, fmt.Errorf("token invalid")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return uuid.Nil, fmt.Errorf("missing subject: %w", err)
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, fmt.Errorf("subject is not a uuid: %w", err)
	}
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("nil subject")
	}
	return userID, nil
}

func extractBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
