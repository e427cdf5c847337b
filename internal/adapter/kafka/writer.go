package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ev-adoption-etl/internal/config"
	"github.com/couchcryptid/ev-adoption-etl/internal/domain"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes every exported row as one JSON message.
// It implements pipeline.Loader.
type Writer struct {
	writer    messageWriter
	layout    domain.Layout
	runID     string
	batchSize int
	logger    *slog.Logger
}

// rowMessage is the wire format of one exported row. Row is keyed by the
// export column names; undefined values are null.
type rowMessage struct {
	Pipeline    string         `json:"pipeline"`
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Row         map[string]any `json:"row"`
}

// NewWriter creates a Kafka producer for the configured export topic.
func NewWriter(cfg *config.Config, layout domain.Layout, runID string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, layout: layout, runID: runID, batchSize: cfg.BatchSize, logger: logger}
}

// Load publishes t in batches of the configured size. Messages are keyed by
// state and year so reruns land on the same partition.
func (w *Writer) Load(ctx context.Context, t domain.Table) error {
	if t.Len() == 0 {
		return nil
	}
	columns := w.layout.Columns(t)
	batchSize := max(w.batchSize, 1)

	records := t.Records()
	for start := 0; start < len(records); start += batchSize {
		end := min(start+batchSize, len(records))
		msgs := make([]kafkago.Message, 0, end-start)
		for _, r := range records[start:end] {
			msg, err := serializeToMessage(w.layout, columns, r, w.runID, t.GeneratedAt())
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
			return fmt.Errorf("publish rows %d-%d: %w", start, end-1, err)
		}
		w.logger.Debug("batch published", "rows", len(msgs), "offset", start)
	}

	w.logger.Info("rows published", "layout", w.layout.Name, "rows", len(records))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals one exported row into a Kafka message.
func serializeToMessage(layout domain.Layout, columns []string, r domain.Record, runID string, generatedAt time.Time) (kafkago.Message, error) {
	row := make(map[string]any, len(columns))
	for _, c := range columns {
		row[c] = jsonValue(layout.Value(r, c))
	}

	data, err := json.Marshal(rowMessage{
		Pipeline:    layout.Name,
		RunID:       runID,
		GeneratedAt: generatedAt,
		Row:         row,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %d: %w", r.State, r.Year, err)
	}
	return kafkago.Message{
		Key:   []byte(r.State + "|" + strconv.Itoa(r.Year)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "data_type", Value: []byte(r.DataType)},
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(generatedAt.Format(time.RFC3339))},
		},
	}, nil
}

// jsonValue maps a cell to a JSON-encodable value. Infinities have no JSON
// number form and are sent as text.
func jsonValue(v domain.Value) any {
	switch v.Kind {
	case domain.KindInt:
		return v.Int
	case domain.KindFloat:
		if math.IsInf(v.Float, 0) {
			return v.String()
		}
		return v.Float
	case domain.KindText:
		return v.Text
	default:
		return nil
	}
}
