package user

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashPassword 计算口令的 SHA-256 十六进制摘要。
// 摘要是确定性的（同一口令恒得同一摘要），登录校验依赖
// username + digest 的精确匹配；明文口令不落库。
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
