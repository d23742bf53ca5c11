package pacchetto

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/retry"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func CreateGRPCClient(ctx context.Context, cfg GRPCClientSettings) (*grpc.ClientConn, error) {
	retryOpts := []retry.CallOption{
		retry.WithMax(cfg.Retries),
		retry.WithCodes(codes.Unavailable, codes.ResourceExhausted),
		retry.WithBackoff(retry.BackoffExponential(time.Duration(cfg.ExponentialBackoffBaseInMilliseconds) * time.Millisecond)),
	}

	conn, err := grpc.NewClient(cfg.Address,
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithUnaryInterceptor(retry.UnaryClientInterceptor(retryOpts...)),
		grpc.WithStreamInterceptor(retry.StreamClientInterceptor(retryOpts...)),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create grpc client", slog.Any("err", err))
		return nil, err
	}

	return conn, nil
}

func CreateGRPCServer() *grpc.Server {
	return grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
	)
}

// CheckGRPCHealth asks a remote health service whether service is serving.
// An empty service name checks the server as a whole.
func CheckGRPCHealth(ctx context.Context, client healthpb.HealthClient, service string) error {
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		return fmt.Errorf("health check %q: %w", service, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("health check %q: %s", service, resp.GetStatus())
	}
	return nil
}
