package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/observability"
)

// Extractor reads the input table.
type Extractor interface {
	Extract(ctx context.Context) (domain.Table, error)
}

// Transformer derives the output table from the input table.
type Transformer interface {
	Transform(ctx context.Context, t domain.Table) (domain.Table, error)
}

// Loader writes the output table to one destination.
type Loader interface {
	Load(ctx context.Context, t domain.Table) error
}

// Sink is a named Loader. The name labels metrics and log lines.
type Sink struct {
	Name   string
	Loader Loader
}

// Pipeline runs one extract-transform-load pass.
type Pipeline struct {
	name        string
	extractor   Extractor
	transformer Transformer
	sinks       []Sink
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Pipeline. Sinks are loaded in order; the first failure stops the run.
func New(name string, e Extractor, t Transformer, sinks []Sink, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		name:        name,
		extractor:   e,
		transformer: t,
		sinks:       sinks,
		logger:      logger.With("pipeline", name),
		metrics:     metrics,
	}
}

// Name returns the pipeline name.
func (p *Pipeline) Name() string { return p.name }

// Run extracts the input, transforms it, stamps it with the generation time,
// and loads it into every sink. It returns the table that was loaded.
func (p *Pipeline) Run(ctx context.Context) (domain.Table, error) {
	start := domain.Now()
	p.logger.Info("pipeline started", "sinks", len(p.sinks))

	in, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues(p.name, "extract").Inc()
		return domain.Table{}, fmt.Errorf("extract: %w", err)
	}
	p.metrics.RowsExtracted.WithLabelValues(p.name).Add(float64(in.Len()))

	out, err := p.transformer.Transform(ctx, in)
	if err != nil {
		p.metrics.RunErrors.WithLabelValues(p.name, "transform").Inc()
		return domain.Table{}, fmt.Errorf("transform: %w", err)
	}
	out = out.Stamp()

	for _, s := range p.sinks {
		if err := ctx.Err(); err != nil {
			p.metrics.RunErrors.WithLabelValues(p.name, "load").Inc()
			return domain.Table{}, err
		}
		if err := s.Loader.Load(ctx, out); err != nil {
			p.metrics.RunErrors.WithLabelValues(p.name, "load").Inc()
			return domain.Table{}, fmt.Errorf("load %s: %w", s.Name, err)
		}
		p.metrics.RowsLoaded.WithLabelValues(p.name, s.Name).Add(float64(out.Len()))
	}

	end := domain.Now()
	p.metrics.RunDuration.WithLabelValues(p.name).Observe(end.Sub(start).Seconds())
	p.metrics.LastSuccess.WithLabelValues(p.name).Set(float64(end.Unix()))
	p.logger.Info("pipeline complete",
		"rows_in", in.Len(),
		"rows_out", out.Len(),
		"duration", end.Sub(start),
	)
	return out, nil
}
