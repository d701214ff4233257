package key

import "errors"

var (
	ErrResourceNotFound = errors.New("key resource not found")
	ErrResourceTooLarge = errors.New("key resource too large")
	ErrBase64Decode     = errors.New("key material is not valid base64")
	ErrKeyParse         = errors.New("key material is not a PKCS#8 RSA private key")
	ErrInvalidKeyID     = errors.New("invalid key id")
)
