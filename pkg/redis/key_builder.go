package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building functionality
type KeyBuilder struct {
	prefix string // Environment prefix (staging/prod)
}

// NewKeyBuilder creates a new key builder with environment-based prefix
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}

	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// Activation key builders

func (kb *KeyBuilder) KeyActivationByID(activationID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyActivationByID, activationID))
}

func (kb *KeyBuilder) KeyActivationsByPartner(partnerID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyActivationsByOwner, partnerID))
}

func (kb *KeyBuilder) KeyCollectionsByPartner(partnerID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyCollectionsByOwner, partnerID))
}

func (kb *KeyBuilder) KeyPartnerStats(partnerID string) string {
	return kb.BuildKey(fmt.Sprintf(KeyPartnerStats, partnerID))
}

func (kb *KeyBuilder) PatternActivations() string {
	return kb.BuildKey(PatternActivationsAll)
}
