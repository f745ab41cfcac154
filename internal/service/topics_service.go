package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/contentwriter/api/internal/backend"
	"github.com/contentwriter/api/internal/model"
	"github.com/contentwriter/api/internal/prompt"
	"github.com/contentwriter/api/internal/store"
)

// TaskTypeRelatedTopics is the asynq task type of related topics lookups
const TaskTypeRelatedTopics = "job:" + model.JobTypeRelatedTopics

const (
	TopicsQueue            = "topics"
	defaultTopicsTimeout   = 30 * time.Second
	defaultTopicsTemp      = 0.5
	topicsTaskRetention    = time.Hour
	relatedTopicsErrPrefix = "Failed to generate related topics: "
)

var ErrNoTopics = errors.New("no related topics")

// TaskEnqueuer is satisfied by *asynq.Client
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TopicsRepository stores the related topics slot of each user
type TopicsRepository interface {
	SaveTopics(ctx context.Context, userID string, topics *model.RelatedTopicsResult) (bool, error)
	LastTopics(ctx context.Context, userID string) (*model.RelatedTopicsResult, error)
}

// TopicsTask is the asynq payload of a related topics task
type TopicsTask struct {
	JobID   string                     `json:"jobId"`
	Payload model.RelatedTopicsPayload `json:"payload"`
}

// TopicsService queues and runs related topics lookups
type TopicsService struct {
	text        backend.TextBackend
	model       string
	temperature float64
	timeout     time.Duration
	repo        TopicsRepository
	enqueuer    TaskEnqueuer
	now         func() time.Time
}

// NewTopicsService creates a related topics service
func NewTopicsService(provider *backend.Provider, repo TopicsRepository, enqueuer TaskEnqueuer, temperature float64, timeout time.Duration) *TopicsService {
	if temperature <= 0 {
		temperature = defaultTopicsTemp
	}
	if timeout <= 0 {
		timeout = defaultTopicsTimeout
	}
	return &TopicsService{
		text:        provider.Text,
		model:       provider.TextModel,
		temperature: temperature,
		timeout:     timeout,
		repo:        repo,
		enqueuer:    enqueuer,
		now:         time.Now,
	}
}

// Dispatch records a queued lookup for the generation and enqueues it
func (s *TopicsService) Dispatch(ctx context.Context, payload model.RelatedTopicsPayload) error {
	jobID := uuid.New().String()
	state := &model.RelatedTopicsResult{
		JobID:        jobID,
		GenerationID: payload.GenerationID,
		Status:       model.JobStatusQueued,
		Topics:       []string{},
		CreatedAt:    s.now().UTC(),
	}

	saved, err := s.repo.SaveTopics(ctx, payload.UserID, state)
	if err != nil {
		return fmt.Errorf("failed to save topics job: %w", err)
	}
	if !saved {
		return nil
	}

	task, err := NewTopicsTask(jobID, payload)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	_, err = s.enqueuer.Enqueue(task,
		asynq.Queue(TopicsQueue),
		asynq.MaxRetry(0),
		asynq.Timeout(s.timeout),
		asynq.Retention(topicsTaskRetention),
	)
	if err != nil {
		_, _, _ = s.Fail(ctx, payload, jobID, err.Error())
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// Fetch asks the text backend for related topics
func (s *TopicsService) Fetch(ctx context.Context, input string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	temperature := s.temperature
	resp, err := s.text.GenerateText(ctx, backend.TextRequest{
		Model:       s.model,
		Prompt:      prompt.RelatedTopics(input),
		Temperature: &temperature,
	})
	if err != nil {
		return nil, err
	}

	text, err := backend.ParseTextPayload(resp.Text)
	if err != nil {
		return nil, err
	}
	return prompt.ParseTopics(text), nil
}

// Last returns the related topics of the user's last generation
func (s *TopicsService) Last(ctx context.Context, userID string) (*model.RelatedTopicsResult, error) {
	topics, err := s.repo.LastTopics(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrTopicsNotFound) {
			return nil, ErrNoTopics
		}
		return nil, err
	}
	return topics, nil
}

// MarkRunning moves the job to running. It reports false when the
// generation has been superseded.
func (s *TopicsService) MarkRunning(ctx context.Context, payload model.RelatedTopicsPayload, jobID string) (bool, error) {
	return s.repo.SaveTopics(ctx, payload.UserID, &model.RelatedTopicsResult{
		JobID:        jobID,
		GenerationID: payload.GenerationID,
		Status:       model.JobStatusRunning,
		Topics:       []string{},
		CreatedAt:    s.now().UTC(),
	})
}

// Complete stores the topics of a finished job
func (s *TopicsService) Complete(ctx context.Context, payload model.RelatedTopicsPayload, jobID string, topics []string) (*model.RelatedTopicsResult, bool, error) {
	if topics == nil {
		topics = []string{}
	}
	now := s.now().UTC()
	result := &model.RelatedTopicsResult{
		JobID:        jobID,
		GenerationID: payload.GenerationID,
		Status:       model.JobStatusSucceeded,
		Topics:       topics,
		CreatedAt:    now,
		CompletedAt:  &now,
	}
	saved, err := s.repo.SaveTopics(ctx, payload.UserID, result)
	return result, saved, err
}

// Fail stores a failed job. The message is prefixed for display. It reports
// false when the generation has been superseded.
func (s *TopicsService) Fail(ctx context.Context, payload model.RelatedTopicsPayload, jobID, message string) (*model.RelatedTopicsResult, bool, error) {
	now := s.now().UTC()
	errMsg := relatedTopicsErrPrefix + message
	result := &model.RelatedTopicsResult{
		JobID:        jobID,
		GenerationID: payload.GenerationID,
		Status:       model.JobStatusFailed,
		Topics:       []string{},
		Error:        &errMsg,
		CreatedAt:    now,
		CompletedAt:  &now,
	}
	saved, err := s.repo.SaveTopics(ctx, payload.UserID, result)
	return result, saved, err
}

// NewTopicsTask builds the asynq task for a related topics lookup
func NewTopicsTask(jobID string, payload model.RelatedTopicsPayload) (*asynq.Task, error) {
	data, err := json.Marshal(TopicsTask{JobID: jobID, Payload: payload})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeRelatedTopics, data), nil
}
