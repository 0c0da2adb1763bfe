package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/thibovi/rebilt-backend/internal/db"
	"github.com/thibovi/rebilt-backend/internal/models"
	"github.com/thibovi/rebilt-backend/internal/queue"
	"github.com/thibovi/rebilt-backend/internal/storage"
)

// JobQueue hands job ids to the workers
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

// ModelJobService drives image-to-3D jobs through submitted, running, ready and failed
type ModelJobService struct {
	db           *db.Database
	generator    ModelGenerator
	uploader     *storage.Uploader
	queue        JobQueue
	pollInterval time.Duration
	maxPolls     int
}

// ModelJobOptions configures NewModelJobService
type ModelJobOptions struct {
	Generator    ModelGenerator
	Uploader     *storage.Uploader
	Queue        JobQueue
	PollInterval time.Duration
	MaxPolls     int
}

// NewModelJobService creates the job service. Without a queue or generator Submit reports ErrUnavailable.
func NewModelJobService(database *db.Database, opts ModelJobOptions) *ModelJobService {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	if opts.MaxPolls <= 0 {
		opts.MaxPolls = 120
	}
	return &ModelJobService{
		db:           database,
		generator:    opts.Generator,
		uploader:     opts.Uploader,
		queue:        opts.Queue,
		pollInterval: opts.PollInterval,
		maxPolls:     opts.MaxPolls,
	}
}

// Enabled reports whether jobs can be submitted
func (s *ModelJobService) Enabled() bool {
	return s != nil && s.queue != nil && s.generator != nil
}

// ModelJobInput is the body of POST /model-jobs
type ModelJobInput struct {
	ImageURL  string `json:"imageUrl"`
	PartnerID string `json:"partnerId"`
	Name      string `json:"name"`
}

// Submit records a job and queues it
func (s *ModelJobService) Submit(ctx context.Context, in ModelJobInput) (*models.ModelJob, error) {
	if !s.Enabled() {
		return nil, ErrUnavailable
	}
	if in.ImageURL == "" {
		return nil, Invalid("imageUrl", "is required")
	}
	job := &models.ModelJob{ImageURL: in.ImageURL, PartnerID: in.PartnerID, Name: in.Name}
	if err := s.db.CreateModelJob(ctx, job); err != nil {
		return nil, err
	}
	if err := s.queue.Enqueue(ctx, job.ID); err != nil {
		s.fail(ctx, job.ID, fmt.Errorf("enqueue: %w", err))
		return nil, upstream("queue", err)
	}
	log.Printf("[MODELJOB] Queued job %s for image %s", job.ID, job.ImageURL)
	return job, nil
}

// Get returns a job
func (s *ModelJobService) Get(ctx context.Context, id string) (*models.ModelJob, error) {
	return s.db.GetModelJob(ctx, id)
}

// List returns jobs, optionally for one partner
func (s *ModelJobService) List(ctx context.Context, partnerID string) ([]models.ModelJob, error) {
	return s.db.GetModelJobs(ctx, partnerID)
}

// errTaskFailed marks failures reported by the generator itself; those are not retried
var errTaskFailed = errors.New("generation failed")

// Process is the queue handler. A returned error makes the queue retry the message.
func (s *ModelJobService) Process(ctx context.Context, msg queue.Message) error {
	job, err := s.db.GetModelJob(ctx, msg.JobID)
	if err != nil {
		if db.IsNotFound(err) {
			log.Printf("[MODELJOB] Job %s no longer exists, dropping", msg.JobID)
			return nil
		}
		return err
	}
	if job.Status.Terminal() {
		return nil
	}
	if err := s.db.UpdateModelJob(ctx, job.ID, map[string]any{
		"status":   string(models.ModelJobRunning),
		"attempts": msg.Attempt,
	}); err != nil {
		return err
	}

	taskID := job.UpstreamTaskID
	if taskID == "" {
		taskID, err = s.generator.Submit(ctx, job.ImageURL)
		if err != nil {
			return err
		}
		if err := s.db.UpdateModelJob(ctx, job.ID, map[string]any{"upstreamTaskId": taskID}); err != nil {
			return err
		}
	}

	task, err := s.poll(ctx, taskID)
	if errors.Is(err, errTaskFailed) {
		s.fail(ctx, job.ID, err)
		return nil
	}
	if err != nil {
		return err
	}

	modelFile := task.ModelURL
	if s.uploader.Enabled() {
		hosted, err := s.uploader.UploadFromURL(ctx, "models", task.ModelURL)
		if err != nil {
			return fmt.Errorf("host model: %w", err)
		}
		modelFile = hosted
	}

	fields := map[string]any{
		"status":    string(models.ModelJobReady),
		"modelFile": modelFile,
		"error":     "",
	}
	if job.PartnerID != "" && job.Name != "" {
		asset := &models.Asset{PartnerID: job.PartnerID, Name: job.Name, ModelFile: modelFile}
		if err := s.db.CreateAsset(ctx, asset); err != nil {
			return err
		}
		fields["assetId"] = asset.ID
	}
	if err := s.db.UpdateModelJob(ctx, job.ID, fields); err != nil {
		return err
	}
	log.Printf("[MODELJOB] Job %s ready: %s", job.ID, modelFile)
	return nil
}

func (s *ModelJobService) poll(ctx context.Context, taskID string) (*ModelTask, error) {
	for i := 0; i < s.maxPolls; i++ {
		task, err := s.generator.Status(ctx, taskID)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case TaskSucceeded:
			if task.ModelURL == "" {
				return nil, fmt.Errorf("%w: task %s succeeded without a model url", errTaskFailed, taskID)
			}
			return task, nil
		case TaskFailed:
			msg := task.Error
			if msg == "" {
				msg = "upstream reported failure"
			}
			return nil, fmt.Errorf("%w: %s", errTaskFailed, msg)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.pollInterval):
		}
	}
	return nil, fmt.Errorf("task %s not finished after %d polls", taskID, s.maxPolls)
}

// GiveUp marks a job failed once the queue stops retrying it
func (s *ModelJobService) GiveUp(ctx context.Context, msg queue.Message, err error) {
	log.Printf("[MODELJOB] Giving up on job %s after %d attempts: %v", msg.JobID, msg.Attempt, err)
	s.fail(ctx, msg.JobID, err)
}

func (s *ModelJobService) fail(ctx context.Context, id string, cause error) {
	if err := s.db.UpdateModelJob(ctx, id, map[string]any{
		"status": string(models.ModelJobFailed),
		"error":  cause.Error(),
	}); err != nil {
		log.Printf("[MODELJOB] Failed to mark job %s failed: %v", id, err)
	}
}
