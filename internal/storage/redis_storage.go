package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"tradebill/api/internal/utils"
)

// mockPublicBaseURL is the fake document host used for Redis-stored objects.
const mockPublicBaseURL = "https://storage.tradebill.test"

// RedisStorage implements IObjectStorage by storing documents in Redis.
// Used in mock mode so integration tests can run the full send pipeline
// without R2 credentials.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage creates a new RedisStorage.
func NewRedisStorage(client *redis.Client) IObjectStorage {
	return &RedisStorage{client: client}
}

// UploadPDF stores the document bytes under a mockpdf key with a short TTL.
func (s *RedisStorage) UploadPDF(ctx context.Context, pdfBytes []byte, invoiceID utils.SixID) (string, error) {
	key := GeneratePDFKey(invoiceID)

	redisKey := "mockpdf:" + key
	ttl := 5 * time.Minute
	if err := s.client.Set(ctx, redisKey, pdfBytes, ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store PDF in Redis key '%s': %w", redisKey, err)
	}

	log.Printf("Mock PDF stored in Redis key '%s' (TTL: %v, %d bytes)", redisKey, ttl, len(pdfBytes))
	return key, nil
}

// PublicURL derives a fake but well-formed URL for the stored object.
func (s *RedisStorage) PublicURL(key string) (string, error) {
	return mockPublicBaseURL + "/" + key, nil
}
