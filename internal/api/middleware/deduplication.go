package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"fusion-recipes/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deduplicator 在視窗內拒絕相同使用者送出的相同 POST 請求
type Deduplicator struct {
	window    time.Duration
	mu        sync.Mutex
	requests  map[string]time.Time
	lastSweep time.Time
}

// NewDeduplicator 創建去重器
func NewDeduplicator(window time.Duration) *Deduplicator {
	if window <= 0 {
		window = time.Second
	}
	return &Deduplicator{
		window:    window,
		requests:  make(map[string]time.Time),
		lastSweep: time.Now(),
	}
}

// Middleware 請求去重中間件
func (d *Deduplicator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 只處理 POST 請求
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		// 計算請求體哈希
		bodyHash := ""
		if c.Request.Body != nil {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				common.LogWarn("Failed to read request body", zap.Error(err))
				common.WriteError(c, common.ErrInvalidRequest, false)
				return
			}
			hash := sha256.Sum256(body)
			bodyHash = hex.EncodeToString(hash[:])

			// 恢復請求體
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		// 生成請求指紋
		fingerprint := c.GetString(ContextUserID) + ":" + c.ClientIP() + ":" + c.Request.URL.Path + ":" + bodyHash

		if !d.admit(fingerprint, time.Now()) {
			common.LogInfo("Duplicate request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
			)
			common.WriteError(c, common.ErrTooManyRequests.WithMessage("Request too frequent"), false)
			return
		}

		c.Next()
	}
}

// admit 記錄請求並回傳是否放行
func (d *Deduplicator) admit(fingerprint string, now time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	// 定期清理過期指紋
	if now.Sub(d.lastSweep) > 10*d.window {
		for k, t := range d.requests {
			if now.Sub(t) > d.window {
				delete(d.requests, k)
			}
		}
		d.lastSweep = now
	}

	if last, exists := d.requests[fingerprint]; exists && now.Sub(last) <= d.window {
		return false
	}
	d.requests[fingerprint] = now
	return true
}
