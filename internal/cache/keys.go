package cache

import "strings"

const (
	GlobalKeyPrefix = "quizbot"
)

// GenerateCacheKey generates a cache key for a given service, object type, and identifier.
// If paramsKey are provided, they are joined by "_" and appended to the cache key.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}

// SessionKey is the Redis key holding one serialized quiz session.
func SessionKey(sessionID string) string {
	return GenerateCacheKey("quiz", "session", sessionID)
}

// ChatHistoryKey is the Redis list key holding the open-ended Q&A history.
func ChatHistoryKey(mode string) string {
	return GenerateCacheKey("ask", "history", mode)
}
