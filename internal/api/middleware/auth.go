package middleware

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fusion-recipes/internal/infrastructure/config"
	"fusion-recipes/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ContextUserID gin context 中的使用者 ID
const ContextUserID = "user_id"

// HeaderUserID 未設定 JWT 密鑰時，開發環境信任的使用者標頭
const HeaderUserID = "X-User-ID"

// Auth 驗證託管認證服務簽發的 JWT，subject 即使用者 ID
func Auth(cfg config.AuthConfig, production bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := authenticate(c, cfg, production)
		if err != nil {
			common.LogWarn("Authentication failed",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			common.WriteError(c, common.ErrUnauthorized, false)
			return
		}

		c.Set(ContextUserID, userID)
		c.Next()
	}
}

func authenticate(c *gin.Context, cfg config.AuthConfig, production bool) (string, error) {
	if cfg.JWTSecret == "" {
		if production {
			return "", errors.New("auth secret not configured")
		}
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID == "" {
			return "", errors.New("missing user header")
		}
		return userID, nil
	}

	header := c.GetHeader("Authorization")
	tokenString, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(tokenString) == "" {
		return "", errors.New("missing bearer token")
	}

	return ParseSubject(strings.TrimSpace(tokenString), cfg)
}

// ParseSubject 驗證 token 並回傳 subject
func ParseSubject(tokenString string, cfg config.AuthConfig) (string, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// StaticToken 中繼端點的共用 token 驗證，token 為空時不檢查
func StaticToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}

		got, _ := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}
