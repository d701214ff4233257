package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"google.golang.org/grpc"
	v1 "k8s.io/externaljwt/apis/v1"

	"github.com/zarvd/token-issuer/internal/config"
	"github.com/zarvd/token-issuer/internal/key"
	"github.com/zarvd/token-issuer/internal/server"
	"github.com/zarvd/token-issuer/internal/token"
)

type CLI struct {
	Config string `short:"c" required:"" type:"existingfile" help:"Path to the YAML configuration file"`

	Issue     IssueCmd     `cmd:"" help:"Issue a signed token for a subject"`
	Serve     ServeCmd     `cmd:"" help:"Serve the verification keys over the external JWT signer API on a unix domain socket"`
	PublicKey PublicKeyCmd `cmd:"" name:"public-key" help:"Print the PEM encoded public key for token verification"`
}

type IssueCmd struct {
	Subject    string   `required:"" help:"Principal name to put in the sub claim"`
	Role       []string `sep:"none" help:"Role granted to the subject, repeatable; order is kept"`
	RememberMe bool     `help:"Use the remember-me validity"`
}

func (cmd *IssueCmd) Run(logger *slog.Logger, cfg *config.Config) error {
	signingKey, err := loadSigningKey(logger, cfg)
	if err != nil {
		return err
	}
	issuer, err := token.NewIssuer(logger, signingKey, cfg.JWT.TokenConfig())
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}

	signed, err := issuer.Issue(cmd.Subject, cmd.Role, cmd.RememberMe)
	if err != nil {
		return err
	}
	fmt.Println(signed)
	return nil
}

type ServeCmd struct {
	UnixDomainSocket string `help:"Unix domain socket to listen on, overrides server.unix_socket"`
}

func (cmd *ServeCmd) Run(ctx context.Context, logger *slog.Logger, cfg *config.Config) error {
	socket := cmd.UnixDomainSocket
	if socket == "" {
		socket = cfg.Server.UnixSocket
	}
	if socket == "" {
		return fmt.Errorf("%w: server.unix_socket is required to serve", config.ErrInvalidConfig)
	}

	keySet, err := newKeySet(logger, cfg)
	if err != nil {
		return err
	}

	grpcServer := grpc.NewServer()
	v1.RegisterExternalJWTSignerServer(grpcServer, server.NewV1Server(logger, keySet))

	listener, err := net.Listen("unix", socket)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	defer listener.Close()

	go func() {
		logger.Info("serving on", slog.String("address", listener.Addr().String()))
		if err := grpcServer.Serve(listener); err != nil {
			logger.Error("failed to serve", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	grpcServer.GracefulStop()
	logger.Info("shutting down")
	return nil
}

type PublicKeyCmd struct{}

func (cmd *PublicKeyCmd) Run(logger *slog.Logger, cfg *config.Config) error {
	signingKey, err := loadSigningKey(logger, cfg)
	if err != nil {
		return err
	}
	out, err := key.PublicKeyPEM(&signingKey.PublicKey)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}

func loadSigningKey(logger *slog.Logger, cfg *config.Config) (*rsa.PrivateKey, error) {
	signingKey, err := key.LoadPrivateKeyFile(cfg.JWT.PrivateKeyLocation)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	logger.Debug("loaded signing key", slog.String("location", cfg.JWT.PrivateKeyLocation))
	return signingKey, nil
}

func newKeySet(logger *slog.Logger, cfg *config.Config) (key.KeySet, error) {
	signingKey, err := loadSigningKey(logger, cfg)
	if err != nil {
		return nil, err
	}
	staticKey, err := key.NewStaticKey(&signingKey.PublicKey, cfg.JWT.KeyID)
	if err != nil {
		return nil, fmt.Errorf("failed to create static key: %w", err)
	}
	keySet, err := key.NewStaticKeySet(logger, staticKey, cfg.JWT.MaxValidity())
	if err != nil {
		return nil, fmt.Errorf("failed to create key set: %w", err)
	}
	return keySet, nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cli CLI
	cliCtx := kong.Parse(&cli,
		kong.Name("token-issuer"),
		kong.Description("Issue RS256 signed bearer tokens."),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger()

	cliCtx.BindTo(ctx, (*context.Context)(nil))
	cliCtx.Bind(logger)
	cliCtx.Bind(cfg)

	if err := cliCtx.Run(); err != nil {
		logger.Error("failed to run CLI", slog.Any("error", err))
		os.Exit(1)
	}
}
