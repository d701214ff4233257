// Package token builds and signs the RS256 bearer tokens handed out after a
// successful authentication.
package token

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	AuthoritiesClaim = "auth"
	GroupsClaim      = "groups"

	authoritiesSeparator = ", "
)

var (
	ErrConfiguration = errors.New("invalid token issuer configuration")
	ErrSigning       = errors.New("failed to sign token")
)

type Config struct {
	Issuer             string
	Validity           time.Duration
	RememberMeValidity time.Duration
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return fmt.Errorf("%w: issuer is required", ErrConfiguration)
	}
	if c.Validity <= 0 {
		return fmt.Errorf("%w: validity must be positive, got %s", ErrConfiguration, c.Validity)
	}
	if c.RememberMeValidity <= 0 {
		return fmt.Errorf("%w: remember-me validity must be positive, got %s", ErrConfiguration, c.RememberMeValidity)
	}
	return nil
}

// Identity is an authenticated principal as seen by the login layer.
type Identity interface {
	PrincipalName() string
	Roles() []string
}

// Claims is the payload of an issued token. Subject shadows the embedded
// registered claim so that an empty subject is still written as "sub":"".
type Claims struct {
	Subject     string   `json:"sub"`
	Authorities string   `json:"auth"`
	Groups      []string `json:"groups"`
	jwt.RegisteredClaims
}

func (c Claims) GetSubject() (string, error) {
	return c.Subject, nil
}

// Issuer signs tokens with a private key it never hands out. It holds no
// mutable state and is safe for concurrent use.
type Issuer struct {
	logger *slog.Logger
	key    *rsa.PrivateKey
	config Config
	now    func() time.Time
}

func NewIssuer(logger *slog.Logger, key *rsa.PrivateKey, cfg Config) (*Issuer, error) {
	if key == nil {
		return nil, fmt.Errorf("%w: signing key is required", ErrConfiguration)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Issuer{
		logger: logger,
		key:    key,
		config: cfg,
		now:    time.Now,
	}, nil
}

// Issue returns a compact signed token for subject. The token expires after
// the remember-me validity when rememberMe is set and after the normal
// validity otherwise. Roles keep the order given.
func (i *Issuer) Issue(subject string, roles []string, rememberMe bool) (string, error) {
	issuedAt := i.now().Truncate(time.Second)
	validity := i.config.Validity
	if rememberMe {
		validity = i.config.RememberMeValidity
	}

	groups := make([]string, len(roles))
	copy(groups, roles)

	claims := Claims{
		Subject:     subject,
		Authorities: strings.Join(groups, authoritiesSeparator),
		Groups:      groups,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
		},
	}

	keyID := uuid.NewString()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(i.key)
	if err != nil {
		i.logger.Error("failed to sign token", slog.String("kid", keyID), slog.Any("error", err))
		return "", ErrSigning
	}

	i.logger.Debug("issued token",
		slog.String("subject", subject),
		slog.String("kid", keyID),
		slog.Bool("remember-me", rememberMe),
	)
	return signed, nil
}

// IssueFor issues a token for an authenticated identity.
func (i *Issuer) IssueFor(identity Identity, rememberMe bool) (string, error) {
	return i.Issue(identity.PrincipalName(), identity.Roles(), rememberMe)
}
