// Package screening implements ScreeningOrchestrator: the end-to-end
// per-request flow that assigns screening IDs, measures latency, and
// composes a ScreeningResponse.
package screening

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"sanctions-screening/internal/logsanitize"
	"sanctions-screening/internal/matching"
	"sanctions-screening/internal/models"
	"sanctions-screening/internal/observability"
	"sanctions-screening/internal/validation"
)

// AlgorithmVersion is echoed on every ScreeningResponse for audit trails.
const AlgorithmVersion = "sanctions-screening/1"

// Orchestrator ties InputValidator and MatchingEngine together and
// maintains a bounded ring buffer of recent screenings.
type Orchestrator struct {
	validator *validation.InputValidator
	engine    *matching.Engine
	logger    *observability.Logger
	metrics   *observability.ScreeningMetrics

	mu      sync.Mutex
	recent  []models.ScreeningResponse
	recentCap int
}

// New builds an Orchestrator. recentCap <= 0 defaults to 10000.
func New(validator *validation.InputValidator, engine *matching.Engine, logger *observability.Logger, recentCap int) *Orchestrator {
	if logger == nil {
		logger = observability.NewLogger(true)
	}
	if recentCap <= 0 {
		recentCap = 10000
	}
	return &Orchestrator{
		validator: validator,
		engine:    engine,
		logger:    logger,
		metrics:   observability.GetScreeningMetrics(),
		recentCap: recentCap,
	}
}

// Screen runs a single screening request end to end. ctx's deadline, if
// any, bounds the matching phase only — InputValidator is not
// cancellable and completes in sub-millisecond time. A panic inside the
// request is recovered and returned as an INTERNAL error; the panic value
// is sanitized before it is logged.
func (o *Orchestrator) Screen(ctx context.Context, input models.ScreeningInput, limit int) (resp models.ScreeningResponse, coreErr *models.CoreError) {
	defer func() {
		if r := recover(); r != nil {
			msg := logsanitize.ForLogging(fmt.Sprint(r), logsanitize.DefaultMaxLength)
			o.logger.WithFields(map[string]interface{}{"panic": msg}).Error("screening panicked")
			resp = models.ScreeningResponse{}
			coreErr = &models.CoreError{Code: models.ErrInternal, Message: "internal error during screening",
				Suggestion: "retry the request; report it if the error persists"}
		}
	}()

	screeningID := uuid.New().String()
	screeningDate := time.Now().UTC()

	if err := o.validator.Validate(input); err != nil {
		return models.ScreeningResponse{}, err
	}

	start := time.Now()
	outcome, partial := o.runMatching(ctx, input, limit)
	elapsed := time.Since(start)

	response := models.ScreeningResponse{
		ScreeningID:      screeningID,
		ScreeningDate:    screeningDate,
		Input:            input,
		IsHit:            outcome.AdmittedCount > 0,
		HitCount:         outcome.AdmittedCount,
		Matches:          outcome.Matches,
		AlgorithmVersion: AlgorithmVersion,
		ThresholdsUsed: models.ThresholdsUsed{
			Name:      outcome.NameThreshold,
			ShortName: outcome.ShortNameThreshold,
		},
		ProcessingTimeMs: elapsed.Milliseconds(),
	}

	if partial {
		for i := range response.Matches {
			response.Matches[i].AddFlag(models.FlagPartialResult)
		}
	}

	o.recordMetrics(response, elapsed)
	o.remember(response)

	return response, nil
}

// runMatching invokes the MatchingEngine. If ctx is already done when
// matching starts, it returns an empty Outcome with partial=true. The
// engine itself is pure CPU and does not suspend, so cancellation is
// checked only at the call boundary: a deadline that expires during the
// scan does not interrupt it, and no partial result set is produced.
func (o *Orchestrator) runMatching(ctx context.Context, input models.ScreeningInput, limit int) (matching.Outcome, bool) {
	select {
	case <-ctx.Done():
		return matching.Outcome{}, true
	default:
	}
	return o.engine.Match(input, limit), false
}

func (o *Orchestrator) recordMetrics(resp models.ScreeningResponse, elapsed time.Duration) {
	o.metrics.ScreeningDurationSeconds.Observe(elapsed.Seconds())

	topRecommendation := "no_hit"
	if len(resp.Matches) > 0 {
		topRecommendation = string(resp.Matches[0].Recommendation)
	}
	o.metrics.ScreeningsTotal.WithLabelValues(topRecommendation).Inc()

	for _, m := range resp.Matches {
		o.metrics.MatchLayerTotal.WithLabelValues(layerLabel(m.MatchLayer)).Inc()
	}
}

func layerLabel(layer int) string {
	switch layer {
	case 1:
		return "1"
	case 2:
		return "2"
	case 3:
		return "3"
	case 4:
		return "4"
	default:
		return "unknown"
	}
}

// remember appends resp to the ring buffer, evicting the oldest entry
// once recentCap is exceeded.
func (o *Orchestrator) remember(resp models.ScreeningResponse) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.recent = append(o.recent, resp)
	if len(o.recent) > o.recentCap {
		o.recent = o.recent[len(o.recent)-o.recentCap:]
	}
}

// Recent returns a snapshot copy of the ring buffer's current contents.
func (o *Orchestrator) Recent() []models.ScreeningResponse {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]models.ScreeningResponse, len(o.recent))
	copy(out, o.recent)
	return out
}

// BulkResult pairs a bulk-screening input row with its outcome; Err is
// set instead of Response when that row's validation failed.
type BulkResult struct {
	Input    models.ScreeningInput
	Response models.ScreeningResponse
	Err      *models.CoreError
}

// ScreenBulk loops Screen over every row; a per-row failure does not
// abort the batch.
func (o *Orchestrator) ScreenBulk(ctx context.Context, inputs []models.ScreeningInput, limit int) []BulkResult {
	results := make([]BulkResult, 0, len(inputs))
	for _, input := range inputs {
		resp, err := o.Screen(ctx, input, limit)
		results = append(results, BulkResult{Input: input, Response: resp, Err: err})
	}
	return results
}
