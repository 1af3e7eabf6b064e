package analysis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// 答案在 Redis 中的过期时间
	answerTTL = 1 * time.Hour
	// Redis key 前缀
	answerKeyPrefix = "answer:"
)

// answerCache 基于 Redis 的问答缓存
// key 由表格指纹和问题共同派生，表格内容变化后旧答案自然失效
type answerCache struct {
	redis *redis.Client
}

func newAnswerCache(redisClient *redis.Client) *answerCache {
	return &answerCache{redis: redisClient}
}

func (c *answerCache) key(fingerprint, question string) string {
	sum := sha256.Sum256([]byte(fingerprint + "\x00" + question))
	return answerKeyPrefix + hex.EncodeToString(sum[:])
}

// Get 查询缓存
func (c *answerCache) Get(ctx context.Context, fingerprint, question string) (string, bool) {
	if c.redis == nil {
		return "", false
	}
	answer, err := c.redis.Get(ctx, c.key(fingerprint, question)).Result()
	if err != nil {
		return "", false
	}
	return answer, true
}

// Set 写入缓存，失败只记日志不影响主流程
func (c *answerCache) Set(ctx context.Context, fingerprint, question, answer string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Set(ctx, c.key(fingerprint, question), answer, answerTTL).Err(); err != nil {
		log.Printf("Warning: failed to cache answer: %v", err)
	}
}
