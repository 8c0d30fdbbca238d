package batch

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/bimsrama/relasi4warna/internal/models"
	"github.com/bimsrama/relasi4warna/internal/pipeline"
)

// OutputRecord is the result of re-assessing one input line.
type OutputRecord struct {
	SubjectID  string                `json:"subject_id"`
	LineNumber int                   `json:"line_number"`
	Outcome    *models.AssessOutcome `json:"outcome,omitempty"`
	Error      string                `json:"error,omitempty"`
}

// Processor runs pipeline assessments over input records with a bounded
// worker pool.
type Processor struct {
	pipeline *pipeline.Pipeline
	workers  int
	logger   *zerolog.Logger
}

func NewProcessor(p *pipeline.Pipeline, workers int, logger *zerolog.Logger) *Processor {
	if workers < 1 {
		workers = 1
	}
	return &Processor{
		pipeline: p,
		workers:  workers,
		logger:   logger,
	}
}

func (p *Processor) Process(ctx context.Context, records []InputRecord) <-chan OutputRecord {
	in := make(chan InputRecord)
	out := make(chan OutputRecord)

	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for record := range in {
				result := p.processOne(ctx, record)
				select {
				case out <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(in)
		for _, record := range records {
			select {
			case in <- record:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(out)
	}()

	return out
}

func (p *Processor) processOne(ctx context.Context, record InputRecord) OutputRecord {
	result := OutputRecord{
		SubjectID:  record.Request.SubjectID,
		LineNumber: record.LineNumber,
	}

	if record.Error != nil {
		result.Error = record.Error.Error()
		return result
	}

	outcome, err := p.pipeline.Run(ctx, record.Request)
	if err != nil {
		p.logger.Error().
			Err(err).
			Int("line", record.LineNumber).
			Str("subject_id", record.Request.SubjectID).
			Msg("Assessment failed")
		result.Error = err.Error()
		return result
	}

	result.Outcome = outcome
	return result
}
