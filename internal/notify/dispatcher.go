package notify

import (
	"context"
	"landing-bot/internal/metrics"
	"landing-bot/internal/models"

	"go.uber.org/zap"
)

// TargetSource выдает адресатов для вида уведомления.
type TargetSource interface {
	For(ctx context.Context, kind Kind) []Destination
}

// Dispatcher рассылает уведомление всем адресатам по очереди.
// Ошибки доставки логируются и возвращаются в результатах, но не прерывают рассылку и не пробрасываются вызывающему.
type Dispatcher struct {
	targets TargetSource
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewDispatcher(targets TargetSource, m *metrics.Metrics, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		targets: targets,
		metrics: m,
		logger:  logger,
	}
}

// NewOrder уведомляет о новой заявке чат команды, канал заявок и менеджеров.
func (d *Dispatcher) NewOrder(ctx context.Context, n OrderNotice) []Result {
	return d.fanOut(ctx, KindNewOrder, NewOrderMessage(n), zap.String("order_id", n.OrderID))
}

// StaleOrder напоминает о заявке, которая дольше порога остается в статусе new.
func (d *Dispatcher) StaleOrder(ctx context.Context, order models.Order) []Result {
	return d.fanOut(ctx, KindReminder, StaleOrderMessage(order), zap.String("order_id", order.OrderID))
}

func (d *Dispatcher) fanOut(ctx context.Context, kind Kind, msg Message, fields ...zap.Field) []Result {
	destinations := d.targets.For(ctx, kind)
	if len(destinations) == 0 {
		d.logger.Debug("Нет адресатов для уведомления", append(fields, zap.Stringer("kind", kind))...)
		return nil
	}

	results := make([]Result, 0, len(destinations))
	delivered := 0

	for _, dest := range destinations {
		err := dest.Deliver(ctx, msg)
		d.metrics.Delivery(dest.Kind(), err)
		results = append(results, Result{Destination: dest.Name(), Err: err})

		if err != nil {
			d.logger.Warn("Не удалось доставить уведомление",
				append(fields,
					zap.Stringer("kind", kind),
					zap.String("destination", dest.Name()),
					zap.Error(err),
				)...,
			)
			continue
		}
		delivered++
	}

	d.logger.Info("Уведомление разослано",
		append(fields,
			zap.Stringer("kind", kind),
			zap.Int("delivered", delivered),
			zap.Int("total", len(destinations)),
		)...,
	)

	return results
}
