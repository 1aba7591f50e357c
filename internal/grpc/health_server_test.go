package grpc

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/protobuf/proto"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func TestHealthServerFollowsDatabase(t *testing.T) {
	db := &fakePinger{}
	s := NewHealthServer(zap.NewNop(), db, "127.0.0.1:0")
	ctx := context.Background()

	if got := s.Refresh(ctx); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", got)
	}
	resp, err := s.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	want := &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}
	if err != nil || !proto.Equal(resp, want) {
		t.Fatalf("Check = %v, %v", resp, err)
	}

	db.err = errors.New("database is closed")
	if got := s.Refresh(ctx); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status = %v", got)
	}
	resp, err = s.health.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil || resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("Check = %v, %v", resp, err)
	}
}

func TestHealthServerRunStops(t *testing.T) {
	s := NewHealthServer(zap.NewNop(), &fakePinger{}, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
}
