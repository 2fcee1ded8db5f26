package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	tokenIssuer = "complaintbot"
	tokenTTL    = 12 * time.Hour
)

type tokenRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// generateJWT видає токен адміністративного API
func (h *Handler) generateJWT(now time.Time) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    tokenIssuer,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.secret)
}

// validateJWT перевіряє підпис, алгоритм, видавця та термін дії
func (h *Handler) validateJWT(tokenString string) error {
	_, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) { return h.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	return err
}

// IssueToken exchanges the admin API key for a JWT.
func (h *Handler) IssueToken(c *gin.Context) {
	if h.apiKey == "" || len(h.secret) == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is disabled"})
		return
	}

	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "api_key is required"})
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		h.log.Warn("rejected admin API key", zap.String("client_ip", c.ClientIP()))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
		return
	}

	token, err := h.generateJWT(time.Now())
	if err != nil {
		h.internalError(c, errors.Wrap(err, "sign token"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "expires_in": int(tokenTTL.Seconds())})
}

// extractToken returns the bearer token of the request. Browsers cannot set
// headers on websocket upgrades, so ?token= is accepted as well.
func extractToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if !strings.HasPrefix(auth, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return c.Query("token")
}

// AuthMiddleware rejects requests without a valid admin JWT.
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(h.secret) == 0 {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin API is disabled"})
			return
		}
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
			return
		}
		if err := h.validateJWT(token); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
			return
		}
		c.Next()
	}
}
