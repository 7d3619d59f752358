package middleware

import (
	"github.com/turtacn/keyip-lineage/pkg/errors"
)

// StaticAPIKeyValidator validates API keys against a fixed, config-loaded
// table. It is the simplest concrete APIKeyValidator this deployment needs:
// the lineage engine treats authentication as an ambient concern, not a
// component with its own behavior, so there is no token-issuing service to
// integrate with.
type StaticAPIKeyValidator struct {
	keys map[string]APIKeyInfo
}

// NewStaticAPIKeyValidator builds a validator from a key→info table.
func NewStaticAPIKeyValidator(keys map[string]APIKeyInfo) *StaticAPIKeyValidator {
	table := make(map[string]APIKeyInfo, len(keys))
	for k, v := range keys {
		table[k] = v
	}
	return &StaticAPIKeyValidator{keys: table}
}

// ValidateAPIKey looks the key up in the static table.
func (v *StaticAPIKeyValidator) ValidateAPIKey(key string) (*APIKeyInfo, error) {
	info, ok := v.keys[key]
	if !ok {
		return nil, errors.Unauthorized("unknown API key")
	}
	return &info, nil
}

// DisabledTokenValidator rejects every bearer token. It satisfies
// TokenValidator for deployments that only issue API keys, so
// AuthMiddleware never has to guard against a nil validator.
type DisabledTokenValidator struct{}

// ValidateToken always fails; this deployment has no JWT issuer wired.
func (DisabledTokenValidator) ValidateToken(token string) (*Claims, error) {
	return nil, errors.Unauthorized("bearer tokens are not accepted by this deployment")
}
