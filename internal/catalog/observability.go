package catalog

import (
	"context"
	"time"

	"github.com/alexanderramin/handbook/internal/domain"
	"go.uber.org/zap"
)

// OperationEvent captures lightweight execution telemetry for a store operation.
type OperationEvent struct {
	Name      string
	Duration  time.Duration
	Success   bool
	Err       error
	Fields    map[string]any
	StartedAt time.Time
}

// Observer receives operation events.
type Observer interface {
	ObserveOperation(ctx context.Context, event OperationEvent)
}

// NoopObserver ignores all events.
type NoopObserver struct{}

func (NoopObserver) ObserveOperation(context.Context, OperationEvent) {}

type logObserver struct {
	logger *zap.Logger
}

// NewLogObserver writes operation events to logger. Failures log at error
// level except caller mistakes (validation, reference, not found), which log
// at warn.
func NewLogObserver(logger *zap.Logger) Observer {
	if logger == nil {
		return NoopObserver{}
	}
	return &logObserver{logger: logger.Named("catalog")}
}

func (o *logObserver) ObserveOperation(_ context.Context, event OperationEvent) {
	fields := make([]zap.Field, 0, 3+len(event.Fields))
	fields = append(fields,
		zap.String("operation", event.Name),
		zap.Duration("duration", event.Duration),
		zap.Bool("success", event.Success),
	)
	for k, v := range event.Fields {
		fields = append(fields, zap.Any(k, v))
	}
	if event.Err == nil {
		o.logger.Debug("catalog_operation", fields...)
		return
	}
	fields = append(fields, zap.String("kind", domain.Kind(event.Err)), zap.Error(event.Err))
	switch domain.Kind(event.Err) {
	case "validation", "reference", "not_found":
		o.logger.Warn("catalog_operation", fields...)
	default:
		o.logger.Error("catalog_operation", fields...)
	}
}

// MultiObserver fans events out to every non-nil observer in order.
type MultiObserver []Observer

func (m MultiObserver) ObserveOperation(ctx context.Context, event OperationEvent) {
	for _, obs := range m {
		if obs != nil {
			obs.ObserveOperation(ctx, event)
		}
	}
}

func (s *Store) observe(ctx context.Context, name string, start time.Time, err error, fields map[string]any) {
	s.observer.ObserveOperation(ctx, OperationEvent{
		Name:      name,
		Duration:  time.Since(start),
		Success:   err == nil,
		Err:       err,
		Fields:    fields,
		StartedAt: start,
	})
}
