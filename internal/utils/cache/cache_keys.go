package cache

import (
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityUser       EntityType = "user"
	EntityCommission EntityType = "commission"
)

type KeyType string

const (
	KeyID    KeyType = "id"
	KeyRates KeyType = "rates"
)

// GenerateKey creates a standardized cache key: entity:type:value
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// EntityKey is used for singleton entries such as the rate table.
func EntityKey(entity EntityType, keyType KeyType) string {
	return string(entity) + ":" + string(keyType)
}

// ParseKey splits a key built by GenerateKey. It returns nil for keys
// that do not have all three parts.
func ParseKey(key string) map[string]string {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) < 3 {
		return nil
	}
	return map[string]string{
		"entity": parts[0],
		"type":   parts[1],
		"value":  parts[2],
	}
}
