package common

import (
	"math/rand"
	"strings"

	"github.com/google/uuid"
)

const alphanumeric = "0123456789abcdefghijklmnopqrstuvwxyz"

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

// RandomAlphanumeric 產生指定長度的小寫英數字串
func RandomAlphanumeric(n int) string {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		sb.WriteByte(alphanumeric[rand.Intn(len(alphanumeric))])
	}
	return sb.String()
}

// NormalizeList 去除前後空白、空字串與重複項目，保留首次出現的順序
func NormalizeList(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		v := strings.TrimSpace(item)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
