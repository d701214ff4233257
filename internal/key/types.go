package key

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"
)

type PublicKey struct {
	KeyID string
	Key   []byte
}

// PEM returns the PKIX DER public key wrapped in a "PUBLIC KEY" block.
func (p *PublicKey) PEM() []byte {
	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: p.Key,
	})
}

// PublicKeyPEM encodes the public half of an RSA key for verifiers.
func PublicKeyPEM(publicKey *rsa.PublicKey) ([]byte, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("%w: missing public key", ErrKeyParse)
	}
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return (&PublicKey{Key: der}).PEM(), nil
}

type StaticKey struct {
	PublicKeyDER []byte
	KeyID        string
}

// KeySet publishes the verification keys for issued tokens. It never holds
// private key material.
type KeySet interface {
	PublicKeys() []*PublicKey
	Expiration() time.Duration
	LoadedAt() time.Time
}
