package key

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxKeyResourceSize bounds how much of a key resource is read. A PKCS#8
// PEM for a 4096-bit RSA key is a little over 3 KiB.
const MaxKeyResourceSize = 16 << 10

var envelopeRe = regexp.MustCompile(`-----(BEGIN|END) [^\r\n]*-----`)

// LoadPrivateKeyFile reads a PEM encoded PKCS#8 RSA private key from path.
func LoadPrivateKeyFile(path string) (*rsa.PrivateKey, error) {
	return LoadPrivateKey(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// LoadPrivateKey reads the named resource from fsys and parses it as a PEM
// encoded PKCS#8 RSA private key.
func LoadPrivateKey(fsys fs.FS, name string) (*rsa.PrivateKey, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResourceNotFound, name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxKeyResourceSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResourceNotFound, name, err)
	}
	if len(data) > MaxKeyResourceSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrResourceTooLarge, name, MaxKeyResourceSize)
	}

	return ParsePrivateKeyPEM(string(data))
}

// ParsePrivateKeyPEM normalizes and decodes a PEM encoded PKCS#8 RSA private key.
func ParsePrivateKeyPEM(pemText string) (*rsa.PrivateKey, error) {
	return DecodePrivateKey(Normalize(pemText))
}

// Normalize strips the BEGIN/END envelope lines and all line breaks from
// pemText, leaving the bare base64 body.
func Normalize(pemText string) string {
	body := envelopeRe.ReplaceAllString(pemText, "")
	body = strings.ReplaceAll(body, "\r\n", "")
	body = strings.ReplaceAll(body, "\n", "")
	return strings.TrimSpace(body)
}

// DecodePrivateKey decodes a base64 PKCS#8 body into an RSA private key.
func DecodePrivateKey(body string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(body)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, fmt.Errorf("%w: corrupt input at byte %d", ErrBase64Decode, int64(corrupt))
		}
		return nil, ErrBase64Decode
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyParse, err)
	}
	privateKey, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key type %T", ErrKeyParse, parsed)
	}
	return privateKey, nil
}
