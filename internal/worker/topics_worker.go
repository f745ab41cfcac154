package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/contentwriter/api/internal/metrics"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/service"
)

const topicsFailedCode = "TOPICS_FAILED"

// Notifier pushes related topics updates to subscribers
type Notifier interface {
	BroadcastStatus(generationID string, status model.JobStatus)
	BroadcastComplete(generationID string, result interface{})
	BroadcastError(generationID string, code, message string)
}

// TopicsWorker processes related topics jobs
type TopicsWorker struct {
	topics *service.TopicsService
	hub    Notifier
	log    zerolog.Logger
}

// NewTopicsWorker creates a new related topics worker
func NewTopicsWorker(topics *service.TopicsService, hub Notifier, log zerolog.Logger) *TopicsWorker {
	return &TopicsWorker{
		topics: topics,
		hub:    hub,
		log:    log.With().Str("component", "topics-worker").Logger(),
	}
}

// ProcessTask handles a related topics task. Failures are stored on the
// user's topics slot; the task itself only fails on a bad payload.
func (w *TopicsWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var task service.TopicsTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", asynq.SkipRetry)
	}

	jobID := task.JobID
	payload := task.Payload
	log := w.log.With().Str("job", jobID).Str("generation", payload.GenerationID).Logger()

	current, err := w.topics.MarkRunning(ctx, payload, jobID)
	if err != nil {
		log.Error().Err(err).Msg("failed to mark job running")
	}
	if err == nil && !current {
		metrics.RecordRelatedTopics("superseded")
		log.Debug().Msg("generation superseded before start")
		return nil
	}
	w.hub.BroadcastStatus(payload.GenerationID, model.JobStatusRunning)

	topics, err := w.topics.Fetch(ctx, payload.Input)
	if err != nil {
		result, saved, saveErr := w.topics.Fail(ctx, payload, jobID, err.Error())
		if saveErr != nil {
			log.Error().Err(saveErr).Msg("failed to store topics failure")
		} else if !saved {
			metrics.RecordRelatedTopics("superseded")
			log.Debug().Err(err).Msg("generation superseded, topics failure discarded")
			return nil
		}
		metrics.RecordRelatedTopics("error")
		w.hub.BroadcastError(payload.GenerationID, topicsFailedCode, *result.Error)
		log.Warn().Err(err).Msg("related topics failed")
		return nil
	}

	result, saved, err := w.topics.Complete(ctx, payload, jobID, topics)
	if err != nil {
		metrics.RecordRelatedTopics("error")
		log.Error().Err(err).Msg("failed to store related topics")
		return nil
	}
	if !saved {
		metrics.RecordRelatedTopics("superseded")
		log.Debug().Msg("generation superseded, topics discarded")
		return nil
	}

	metrics.RecordRelatedTopics("success")
	w.hub.BroadcastComplete(payload.GenerationID, result)
	log.Info().Int("topics", len(topics)).Msg("related topics completed")
	return nil
}
