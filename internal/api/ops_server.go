package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const readyTimeout = 2 * time.Second

// Pinger проверяет доступность хранилища
type Pinger interface {
	PingContext(ctx context.Context) error
}

// OpsServer: служебный HTTP-сервер: проверки живости и готовности, метрики Prometheus
type OpsServer struct {
	logger     *zap.Logger
	db         Pinger
	httpServer *http.Server
}

// NewOpsServer создает служебный сервер
func NewOpsServer(logger *zap.Logger, db Pinger, addr string) *OpsServer {
	s := &OpsServer{
		logger: logger,
		db:     db,
	}

	// Создаем HTTP-сервер
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// Routes возвращает маршрутизатор служебных эндпоинтов
func (s *OpsServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Run запускает HTTP-сервер и останавливает его после отмены ctx
func (s *OpsServer) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Запуск HTTP-сервера", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.logger.Error("Ошибка запуска HTTP-сервера", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.logger.Info("Остановка HTTP-сервера")
	return s.httpServer.Shutdown(shutdownCtx)
}

func (s *OpsServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady отвечает 503, пока база недоступна
func (s *OpsServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn("База данных недоступна", zap.Error(err))
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
