package grpc

import (
	"context"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName: имя сервиса в ответах grpc.health.v1
const ServiceName = "landing_bot.Bot"

const (
	defaultCheckInterval = 15 * time.Second
	pingTimeout          = 2 * time.Second
)

// Pinger проверяет доступность хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer отдает статус бота по стандартному протоколу grpc.health.v1.
// Статус SERVING выставляется, пока отвечает база данных.
type HealthServer struct {
	logger   *zap.Logger
	db       Pinger
	addr     string
	interval time.Duration
	health   *health.Server
	server   *grpc.Server
}

// NewHealthServer создает gRPC-сервер проверки здоровья
func NewHealthServer(logger *zap.Logger, db Pinger, addr string) *HealthServer {
	hs := health.NewServer()
	server := grpc.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	return &HealthServer{
		logger:   logger,
		db:       db,
		addr:     addr,
		interval: defaultCheckInterval,
		health:   hs,
		server:   server,
	}
}

// Refresh проверяет базу и обновляет статус сервиса
func (s *HealthServer) Refresh(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("База данных недоступна", zap.Error(err))
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}

	s.health.SetServingStatus("", status)
	s.health.SetServingStatus(ServiceName, status)
	return status
}

// Run слушает addr и периодически обновляет статус до отмены ctx
func (s *HealthServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("ошибка запуска gRPC сервера: %w", err)
	}

	s.Refresh(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Запуск gRPC сервера", zap.String("addr", s.addr))
		errCh <- s.server.Serve(lis)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case err := <-errCh:
			return err
		case <-ticker.C:
			s.Refresh(ctx)
		case <-ctx.Done():
			s.logger.Info("Остановка gRPC сервера")
			s.health.Shutdown()
			s.server.GracefulStop()
			return nil
		}
	}
}
