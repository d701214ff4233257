package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const validYAML = `
jwt:
  issuer: ${TEST_TOKEN_ISSUER}
  private_key_location: keys/private.pem
  key_id: signer-1
  token_validity_in_seconds: 3600
  token_validity_in_seconds_for_remember_me: 2592000
server:
  unix_socket: /tmp/issuer.sock
logging:
  level: debug
  format: json
`

func TestLoad(t *testing.T) {
	t.Setenv("TEST_TOKEN_ISSUER", "https://auth.example.com")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://auth.example.com", cfg.JWT.Issuer)
	require.Equal(t, "keys/private.pem", cfg.JWT.PrivateKeyLocation)
	require.Equal(t, "signer-1", cfg.JWT.KeyID)
	require.Equal(t, "/tmp/issuer.sock", cfg.Server.UnixSocket)

	tokenCfg := cfg.JWT.TokenConfig()
	require.Equal(t, time.Hour, tokenCfg.Validity)
	require.Equal(t, 30*24*time.Hour, tokenCfg.RememberMeValidity)
	require.Equal(t, 30*24*time.Hour, cfg.JWT.MaxValidity())

	level, err := cfg.Logging.SlogLevel()
	require.NoError(t, err)
	require.Equal(t, slog.LevelDebug, level)
	require.NotNil(t, cfg.Logging.NewLogger())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(`
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 120
`))
	require.NoError(t, err)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "text", cfg.Logging.Format)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unset issuer variable",
			yaml: `
jwt:
  issuer: ${TEST_TOKEN_ISSUER_UNSET}
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 120
`,
		},
		{
			name: "missing key location",
			yaml: `
jwt:
  issuer: iss
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 120
`,
		},
		{
			name: "zero validity",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 0
  token_validity_in_seconds_for_remember_me: 120
`,
		},
		{
			name: "negative remember-me validity",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: -1
`,
		},
		{
			name: "validity overflows duration",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 18446744074
  token_validity_in_seconds_for_remember_me: 120
`,
		},
		{
			name: "remember-me validity overflows duration",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 9223372037
`,
		},
		{
			name: "unknown log format",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 120
logging:
  format: xml
`,
		},
		{
			name: "unknown log level",
			yaml: `
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 60
  token_validity_in_seconds_for_remember_me: 120
logging:
  level: loud
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestParse_LargestValidity(t *testing.T) {
	cfg, err := Parse([]byte(`
jwt:
  issuer: iss
  private_key_location: key.pem
  token_validity_in_seconds: 9223372036
  token_validity_in_seconds_for_remember_me: 120
`))
	require.NoError(t, err)
	require.Equal(t, 9223372036*time.Second, cfg.JWT.TokenConfig().Validity)
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := Parse([]byte("jwt: [unterminated"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidConfig)
}
