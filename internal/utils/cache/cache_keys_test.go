package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "user:id:abc", GenerateKey(EntityUser, KeyID, "abc"))
	assert.Equal(t, "commission:rates", EntityKey(EntityCommission, KeyRates))
}

func TestParseKey(t *testing.T) {
	assert.Equal(t, map[string]string{"entity": "user", "type": "id", "value": "a:b"}, ParseKey("user:id:a:b"))
	assert.Nil(t, ParseKey("commission:rates"))
}
