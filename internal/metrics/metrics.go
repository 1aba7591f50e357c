package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics хранит коллекторы Prometheus, общие для всего сервиса.
type Metrics struct {
	IncomingUpdates *prometheus.CounterVec
	OrdersCreated   prometheus.Counter
	RateLimited     prometheus.Counter
	Deliveries      *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
	Errors          *prometheus.CounterVec
}

var (
	regOnce         sync.Once
	metricsInstance *Metrics
)

// Registry создает и регистрирует синглтон метрик с заданным namespace.
func Registry(namespace string) *Metrics {
	regOnce.Do(func() {
		metricsInstance = &Metrics{
			IncomingUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "incoming_updates_total",
				Help:      "Входящие события Telegram по типу.",
			}, []string{"type"}),
			OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orders_created_total",
				Help:      "Созданные заявки.",
			}),
			RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "quiz_rate_limited_total",
				Help:      "Попытки начать квиз сверх лимита заявок.",
			}),
			Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notification_deliveries_total",
				Help:      "Доставки уведомлений по типу адресата и результату.",
			}, []string{"destination", "status"}),
			JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_runs_total",
				Help:      "Запуски фоновых задач по результату.",
			}, []string{"job", "status"}),
			JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "job_duration_seconds",
				Help:      "Длительность фоновых задач.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"job"}),
			Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Ошибки по компонентам.",
			}, []string{"component"}),
		}

		prometheus.MustRegister(
			metricsInstance.IncomingUpdates,
			metricsInstance.OrdersCreated,
			metricsInstance.RateLimited,
			metricsInstance.Deliveries,
			metricsInstance.JobRuns,
			metricsInstance.JobDuration,
			metricsInstance.Errors,
		)
	})
	return metricsInstance
}

// Методы ниже допускают nil-получатель, чтобы тесты и компоненты без метрик не проверяли указатель.

func (m *Metrics) Update(kind string) {
	if m == nil {
		return
	}
	m.IncomingUpdates.WithLabelValues(kind).Inc()
}

func (m *Metrics) OrderCreated() {
	if m == nil {
		return
	}
	m.OrdersCreated.Inc()
}

func (m *Metrics) RateLimit() {
	if m == nil {
		return
	}
	m.RateLimited.Inc()
}

func (m *Metrics) Delivery(destination string, err error) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(destination, statusLabel(err)).Inc()
}

func (m *Metrics) Job(job string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.JobRuns.WithLabelValues(job, statusLabel(err)).Inc()
	m.JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Error(component string) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(component).Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
