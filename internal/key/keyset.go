package key

import (
	"crypto/rsa"
	"crypto/x509"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

var _ KeySet = (*staticKeySet)(nil)

type staticKeySet struct {
	static   *StaticKey
	expiry   time.Duration
	loadedAt time.Time
}

// NewStaticKey binds the PKIX encoding of publicKey to keyID.
func NewStaticKey(publicKey *rsa.PublicKey, keyID string) (*StaticKey, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("%w: missing public key", ErrKeyParse)
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidKeyID)
	}
	publicKeyDER, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return &StaticKey{
		PublicKeyDER: publicKeyDER,
		KeyID:        keyID,
	}, nil
}

func NewStaticKeySet(
	logger *slog.Logger,
	staticKey *StaticKey,
	expiry time.Duration,
) (KeySet, error) {
	if staticKey == nil || len(staticKey.PublicKeyDER) == 0 {
		return nil, fmt.Errorf("%w: missing static key", ErrKeyParse)
	}
	if expiry <= 0 {
		return nil, fmt.Errorf("invalid expiry %s", expiry)
	}

	s := &staticKeySet{
		static:   staticKey,
		expiry:   expiry,
		loadedAt: time.Now(),
	}
	logger.Info("Loaded verification key", slog.String("key-id", staticKey.KeyID))
	return s, nil
}

func (s *staticKeySet) PublicKeys() []*PublicKey {
	return []*PublicKey{
		{
			KeyID: s.static.KeyID,
			Key:   s.static.PublicKeyDER,
		},
	}
}

func (s *staticKeySet) Expiration() time.Duration {
	return s.expiry
}

func (s *staticKeySet) LoadedAt() time.Time {
	return s.loadedAt
}
