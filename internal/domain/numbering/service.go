package numbering

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"policyhub/internal/core/apperror"
	"policyhub/pkg/logger"
)

var tracer = otel.Tracer("policyhub/numbering")

// ServiceConfig wires a Service.
type ServiceConfig struct {
	Registry *Registry
	Counters CounterStore
	Clock    Clock
	Recorder Recorder // optional
}

// Service issues policy numbers and fronts the registry.
//
// It keeps no per-generator state between calls: every request reads the
// configuration from the repository and advances the counter in the store.
type Service struct {
	registry *Registry
	counters CounterStore
	clock    Clock
	recorder Recorder
}

// NewService creates a numbering service.
func NewService(cfg ServiceConfig) *Service {
	s := &Service{
		registry: cfg.Registry,
		counters: cfg.Counters,
		clock:    cfg.Clock,
		recorder: cfg.Recorder,
	}
	if s.clock == nil {
		s.clock = SystemClock{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	return s
}

// GetNextNumber returns the next formatted number for productCode.
func (s *Service) GetNextNumber(ctx context.Context, productCode string) (string, error) {
	issued, err := s.Next(ctx, productCode)
	if err != nil {
		return "", err
	}
	return issued.Number, nil
}

// Next advances the counter of productCode and renders the new value.
//
// Overflow wraps are not errors: the number is returned with Overflowed set,
// and the wrap is logged and recorded.
func (s *Service) Next(ctx context.Context, productCode string) (*Issued, error) {
	ctx, span := tracer.Start(ctx, "numbering.next",
		trace.WithAttributes(attribute.String("numbering.product_code", productCode)))
	defer span.End()

	start := time.Now()
	issued, err := s.next(ctx, productCode)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.recorder.ObserveFailure(productCode, errorCode(err))
		if apperror.IsStoreUnavailable(err) {
			logger.Error(ctx, "counter store unavailable", "product_code", productCode, "error", err)
		}
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("numbering.value", issued.Value),
		attribute.String("numbering.transition", string(issued.Transition)),
	)
	s.recorder.ObserveIssue(productCode, Increment{
		Value:      issued.Value,
		Period:     issued.Period,
		Transition: issued.Transition,
		WrapCount:  issued.WrapCount,
	}, time.Since(start).Seconds())

	switch issued.Transition {
	case TransitionWrap:
		logger.Warn(ctx, "counter overflowed and wrapped to 1",
			"product_code", productCode,
			"period", issued.Period.String(),
			"wrap_count", issued.WrapCount,
		)
	case TransitionReset:
		logger.Info(ctx, "counter reset for new period",
			"product_code", productCode,
			"period", issued.Period.String(),
		)
	default:
		logger.Debug(ctx, "number issued", "product_code", productCode, "value", issued.Value)
	}
	return issued, nil
}

func (s *Service) next(ctx context.Context, productCode string) (*Issued, error) {
	g, err := s.registry.Get(ctx, productCode)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	inc, err := s.counters.IncrementAndGet(ctx, KeyOf(g), PeriodOf(g.ResetPolicy, now), g.MaxValue)
	if err != nil {
		return nil, fmt.Errorf("increment counter %s: %w", productCode, err)
	}

	number, err := Render(inc.Value, g.Mask, g.XORMask)
	if err != nil {
		return nil, err
	}

	return &Issued{
		ProductCode: g.ProductCode,
		Number:      number,
		Value:       inc.Value,
		Period:      inc.Period,
		Transition:  inc.Transition,
		Overflowed:  inc.Overflowed(),
		WrapCount:   inc.WrapCount,
		IssuedAt:    now.UTC(),
	}, nil
}

// Decode recovers the counter value printed in a number issued for productCode.
// Values outside [1, MaxValue] are rejected.
func (s *Service) Decode(ctx context.Context, productCode, number string) (int64, error) {
	g, err := s.registry.Get(ctx, productCode)
	if err != nil {
		return 0, err
	}
	value, err := Decode(number, g.Mask, g.XORMask)
	if err != nil {
		return 0, err
	}
	if value < 1 || value > g.MaxValue {
		return 0, apperror.NewFormat("number was never issued by this generator").
			WithDetail("value", value).
			WithDetail("max_value", g.MaxValue)
	}
	return value, nil
}

// --- Registry delegation ---

// Create registers a generator.
func (s *Service) Create(ctx context.Context, g *Generator) error {
	return s.registry.Create(ctx, g)
}

// Update replaces a generator's configuration.
func (s *Service) Update(ctx context.Context, g *Generator) error {
	return s.registry.Update(ctx, g)
}

// Validate reports configuration problems without writing anything.
func (s *Service) Validate(ctx context.Context, g *Generator) (apperror.FieldErrors, error) {
	return s.registry.Validate(ctx, g)
}

// Get returns one generator.
func (s *Service) Get(ctx context.Context, productCode string) (*Generator, error) {
	return s.registry.Get(ctx, productCode)
}

// List returns the tenant's generators.
func (s *Service) List(ctx context.Context) ([]*Generator, error) {
	return s.registry.List(ctx)
}

// History returns previous configurations of a generator.
func (s *Service) History(ctx context.Context, productCode string, limit int) ([]Revision, error) {
	return s.registry.History(ctx, productCode, limit)
}

func errorCode(err error) string {
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return apperror.CodeInternal
}
