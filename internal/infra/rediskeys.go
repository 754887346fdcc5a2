package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных консоли в Redis
	RedisNamespace = "saude"
)

// Префикс кэша ответов бэкенда (ключ = префикс + путь с query)
const (
	RedisKeyUpstreamCache = RedisNamespace + ":upstream:"
)

// GetUpstreamCacheKey Генератор ключей для кэша GET-запросов к бэкенду.
func GetUpstreamCacheKey(pathWithQuery string) string {
	return fmt.Sprintf("%s%s", RedisKeyUpstreamCache, pathWithQuery)
}
