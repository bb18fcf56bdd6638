package security

import (
	"crypto/subtle"
	"sync/atomic"

	"github.com/alexedwards/argon2id"
)

func HashAgentKey(key string) (string, error) {
	hash, err := argon2id.CreateHash(key, argon2id.DefaultParams)
	if err != nil {
		return "", err
	}
	return hash, nil
}

func CompareAgentKey(key, hash string) (bool, error) {
	ok, err := argon2id.ComparePasswordAndHash(key, hash)
	if err != nil {
		return false, err
	}
	return ok, nil
}

// AgentKeyVerifier checks probe agent keys against a configured argon2id
// hash. The last accepted key is remembered so repeat requests skip the
// argon2 work.
type AgentKeyVerifier struct {
	hash     string
	accepted atomic.Pointer[string]
}

func NewAgentKeyVerifier(hash string) *AgentKeyVerifier {
	return &AgentKeyVerifier{hash: hash}
}

func (v *AgentKeyVerifier) Verify(key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	if last := v.accepted.Load(); last != nil && subtle.ConstantTimeCompare([]byte(*last), []byte(key)) == 1 {
		return true, nil
	}

	ok, err := CompareAgentKey(key, v.hash)
	if err != nil || !ok {
		return false, err
	}
	v.accepted.Store(&key)
	return true, nil
}
