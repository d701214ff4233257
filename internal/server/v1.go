package server

import (
	"context"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/timestamppb"
	v1 "k8s.io/externaljwt/apis/v1"

	"github.com/zarvd/token-issuer/internal/key"
)

// V1Server publishes the issuer's verification keys. Tokens are only minted
// by token.Issuer, so Sign is refused for every request.
type V1Server struct {
	v1.UnimplementedExternalJWTSignerServer

	logger *slog.Logger
	keys   key.KeySet
}

func NewV1Server(logger *slog.Logger, keys key.KeySet) *V1Server {
	return &V1Server{
		logger: logger,
		keys:   keys,
	}
}

func (svr *V1Server) Sign(ctx context.Context, req *v1.SignJWTRequest) (*v1.SignJWTResponse, error) {
	logger := svr.logger.With(slog.String("method", "Sign"))
	logger.Warn("refused to sign caller supplied claims")

	return nil, status.Errorf(codes.Unimplemented, "signing caller supplied claims is not supported")
}

func (svr *V1Server) FetchKeys(ctx context.Context, req *v1.FetchKeysRequest) (*v1.FetchKeysResponse, error) {
	logger := svr.logger.With(slog.String("method", "FetchKeys"))

	publicKeys := svr.keys.PublicKeys()
	keys := make([]*v1.Key, 0, len(publicKeys))
	for _, publicKey := range publicKeys {
		keys = append(keys, &v1.Key{
			KeyId:                    publicKey.KeyID,
			Key:                      publicKey.Key,
			ExcludeFromOidcDiscovery: false,
		})
	}

	rv := &v1.FetchKeysResponse{
		Keys:               keys,
		DataTimestamp:      timestamppb.New(svr.keys.LoadedAt()),
		RefreshHintSeconds: int64(svr.keys.Expiration().Seconds() / 2),
	}
	logger.Debug("fetched keys",
		slog.Int("num-keys", len(keys)),
		slog.Int64("refresh-hint-seconds", rv.RefreshHintSeconds),
	)

	return rv, nil
}

func (svr *V1Server) Metadata(ctx context.Context, req *v1.MetadataRequest) (*v1.MetadataResponse, error) {
	logger := svr.logger.With(slog.String("method", "Metadata"))

	rv := &v1.MetadataResponse{
		MaxTokenExpirationSeconds: int64(svr.keys.Expiration().Seconds()),
	}
	logger.Debug("fetched metadata", slog.Int64("max-token-expiration-seconds", rv.MaxTokenExpirationSeconds))

	return rv, nil
}
