package pacchetto

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func TestCheckGRPCHealth(t *testing.T) {
	// Arrange
	lis := bufconn.Listen(1 << 20)
	srv := CreateGRPCServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	// Act / Assert
	hs.SetServingStatus("maestro", healthpb.HealthCheckResponse_SERVING)
	assert.NoError(t, CheckGRPCHealth(ctx, client, "maestro"))

	hs.SetServingStatus("maestro", healthpb.HealthCheckResponse_NOT_SERVING)
	assert.ErrorContains(t, CheckGRPCHealth(ctx, client, "maestro"), "NOT_SERVING")

	assert.Error(t, CheckGRPCHealth(ctx, client, "unknown"))
}
