package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
	"github.com/couchcryptid/ev-adoption-etl/internal/observability"
	"github.com/couchcryptid/ev-adoption-etl/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	table domain.Table
	err   error
}

func (m *mockExtractor) Extract(_ context.Context) (domain.Table, error) {
	return m.table, m.err
}

type mockTransformer struct {
	err   error
	calls int
}

func (m *mockTransformer) Transform(_ context.Context, t domain.Table) (domain.Table, error) {
	m.calls++
	if m.err != nil {
		return domain.Table{}, m.err
	}
	return t, nil
}

type mockLoader struct {
	loaded []domain.Table
	err    error
}

func (m *mockLoader) Load(_ context.Context, t domain.Table) error {
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, t)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func twoRows() domain.Table {
	return domain.NewTable([]domain.Record{
		domain.NewRecord("Delhi", 2023, 10, 0.1, 0.2),
		domain.NewRecord("Delhi", 2024, 20, 0.2, 0.3),
	}, nil)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	defer domain.SetClock(nil)

	ext := &mockExtractor{table: twoRows()}
	tfm := &mockTransformer{}
	file := &mockLoader{}
	kafka := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New("forecast", ext, tfm, []pipeline.Sink{
		{Name: "csv", Loader: file},
		{Name: "kafka", Loader: kafka},
	}, discardLogger(), metrics)

	out, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "forecast", p.Name())
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, fixed, out.GeneratedAt())
	require.Len(t, file.loaded, 1)
	require.Len(t, kafka.loaded, 1)
	assert.Equal(t, fixed, file.loaded[0].GeneratedAt(), "sinks receive the stamped table")

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsExtracted.WithLabelValues("forecast")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("forecast", "csv")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("forecast", "kafka")))
	assert.Equal(t, float64(fixed.Unix()), testutil.ToFloat64(metrics.LastSuccess.WithLabelValues("forecast")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.RunDuration))
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: domain.ErrInputNotFound}
	tfm := &mockTransformer{}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New("forecast", ext, tfm, []pipeline.Sink{{Name: "csv", Loader: ldr}}, discardLogger(), metrics)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrInputNotFound)
	assert.Zero(t, tfm.calls)
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunErrors.WithLabelValues("forecast", "extract")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.LastSuccess.WithLabelValues("forecast")))
}

func TestPipeline_Run_TransformError(t *testing.T) {
	histErr := &domain.InsufficientHistoryError{State: "Sikkim", Years: 1}
	ldr := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New("forecast", &mockExtractor{table: twoRows()}, &mockTransformer{err: histErr},
		[]pipeline.Sink{{Name: "csv", Loader: ldr}}, discardLogger(), metrics)

	_, err := p.Run(context.Background())

	var target *domain.InsufficientHistoryError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, "Sikkim", target.State)
	assert.Empty(t, ldr.loaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunErrors.WithLabelValues("forecast", "transform")))
}

func TestPipeline_Run_LoadErrorStopsRemainingSinks(t *testing.T) {
	file := &mockLoader{err: domain.ErrOutputLocked}
	kafka := &mockLoader{}
	metrics := observability.NewMetrics()

	p := pipeline.New("forecast", &mockExtractor{table: twoRows()}, &mockTransformer{}, []pipeline.Sink{
		{Name: "csv", Loader: file},
		{Name: "kafka", Loader: kafka},
	}, discardLogger(), metrics)

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrOutputLocked)
	assert.Contains(t, err.Error(), "load csv")
	assert.Empty(t, kafka.loaded)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RunErrors.WithLabelValues("forecast", "load")))
}

func TestPipeline_Run_ContextCancelledBeforeLoad(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ldr := &mockLoader{}
	p := pipeline.New("dashboard", &mockExtractor{table: twoRows()}, &mockTransformer{},
		[]pipeline.Sink{{Name: "xlsx", Loader: ldr}}, discardLogger(), observability.NewMetrics())

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

func TestPipeline_Run_NoSinks(t *testing.T) {
	p := pipeline.New("dashboard", &mockExtractor{table: twoRows()}, &mockTransformer{}, nil, discardLogger(), observability.NewMetrics())

	out, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, out.Len())
}
