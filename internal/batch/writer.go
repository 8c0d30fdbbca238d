package batch

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
)

// Writer emits batch results either as JSONL (one result per line) or as a
// single summary object written on Close.
type Writer struct {
	output  io.Writer
	format  string
	logger  *zerolog.Logger
	encoder *json.Encoder

	total     int
	errors    int
	decisions map[models.Decision]int
}

func NewWriter(output io.Writer, format string, logger *zerolog.Logger) (*Writer, error) {
	switch format {
	case "jsonl", "summary":
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return &Writer{
		output:    output,
		format:    format,
		logger:    logger,
		encoder:   json.NewEncoder(output),
		decisions: make(map[models.Decision]int),
	}, nil
}

func (w *Writer) Write(record OutputRecord) error {
	w.total++
	if record.Error != "" {
		w.errors++
	} else if record.Outcome != nil {
		w.decisions[record.Outcome.Decision]++
	}

	if w.format == "jsonl" {
		return w.encoder.Encode(record)
	}
	return nil
}

func (w *Writer) Close() error {
	if w.format != "summary" {
		return nil
	}

	summary := struct {
		Total     int                     `json:"total"`
		Errors    int                     `json:"errors"`
		Decisions map[models.Decision]int `json:"decisions"`
	}{
		Total:     w.total,
		Errors:    w.errors,
		Decisions: w.decisions,
	}

	return w.encoder.Encode(summary)
}
