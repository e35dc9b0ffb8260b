package services

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/tether/internal/core/domain"
	"github.com/custodia-labs/tether/internal/core/ports/driven"
	"github.com/custodia-labs/tether/internal/core/ports/driving"
	"github.com/custodia-labs/tether/internal/logger"
)

// Ensure Ingestion implements the interface.
var _ driving.IngestionService = (*Ingestion)(nil)

// IngestionConfig holds optional orchestrator settings.
type IngestionConfig struct {
	// ScratchDir receives downloads while they are summarised.
	// Defaults to <os.TempDir>/tether-scratch.
	ScratchDir string
	// OnResult, if set, is called from the worker after every job.
	OnResult func(domain.JobResult)
}

// Ingestion is the background orchestrator. Any number of producers enqueue
// jobs; one worker runs them in priority order.
type Ingestion struct {
	registry   driving.ConnectorRegistry
	projects   driven.ProjectStore
	summarizer driven.Summarizer
	scratchDir string
	onResult   func(domain.JobResult)

	mu       sync.Mutex
	cond     *sync.Cond
	queue    jobQueue
	seq      uint64
	running  bool
	stopping bool
	busy     bool
	done     chan struct{}
}

// NewIngestion creates an orchestrator. summarizer may be nil, in which case
// files added without a description are recorded but never summarised.
func NewIngestion(
	registry driving.ConnectorRegistry,
	projects driven.ProjectStore,
	summarizer driven.Summarizer,
	cfg IngestionConfig,
) *Ingestion {
	scratch := cfg.ScratchDir
	if scratch == "" {
		scratch = filepath.Join(os.TempDir(), "tether-scratch")
	}
	s := &Ingestion{
		registry:   registry,
		projects:   projects,
		summarizer: summarizer,
		scratchDir: scratch,
		onResult:   cfg.OnResult,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Start launches the worker. Jobs enqueued earlier run as soon as it starts.
func (s *Ingestion) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopping = false
	s.done = make(chan struct{})
	go s.run(ctx, s.done)
	logger.Debug("ingestion worker started", "scratch_dir", s.scratchDir)
}

// Stop lets the current job finish, then terminates the worker.
// Jobs still queued are dropped.
func (s *Ingestion) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	done := s.done
	s.cond.Broadcast()
	s.mu.Unlock()

	<-done

	s.mu.Lock()
	s.running = false
	dropped := s.queue.Len()
	s.queue = nil
	s.cond.Broadcast()
	s.mu.Unlock()
	if dropped > 0 {
		logger.Warn("ingestion stopped with queued jobs", "dropped", dropped)
	}
}

// AddFile enqueues an AddFile job.
func (s *Ingestion) AddFile(url string, folderID int64, description string, priority int) (string, error) {
	return s.Enqueue(domain.Job{
		Function:    domain.JobAddFile,
		Priority:    priority,
		URL:         url,
		FolderID:    folderID,
		Description: description,
	})
}

// Summarize enqueues a Summarize job for an existing file.
func (s *Ingestion) Summarize(fileID int64, priority int) (string, error) {
	return s.Enqueue(domain.Job{
		Function: domain.JobSummarize,
		Priority: priority,
		FileID:   fileID,
	})
}

// Enqueue adds a job to the queue and returns its ID. It never blocks on
// the worker.
func (s *Ingestion) Enqueue(job domain.Job) (string, error) {
	switch job.Function {
	case domain.JobAddFile:
		if strings.TrimSpace(job.URL) == "" {
			return "", fmt.Errorf("%w: add_file needs a URL", domain.ErrInvalidInput)
		}
	case domain.JobSummarize:
		if job.FileID == 0 {
			return "", fmt.Errorf("%w: summarize needs a file ID", domain.ErrInvalidInput)
		}
	default:
		return "", fmt.Errorf("%w: unknown job function %q", domain.ErrInvalidInput, job.Function)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return "", domain.ErrQueueStopped
	}

	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.EnqueuedAt = time.Now()
	s.seq++
	heap.Push(&s.queue, &queuedJob{job: job, seq: s.seq})
	s.cond.Broadcast()
	return job.ID, nil
}

// Pending returns the number of jobs waiting to run.
func (s *Ingestion) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.Len()
}

// WaitIdle blocks until the queue is empty and no job is running, or ctx
// is done.
func (s *Ingestion) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	})
	defer stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for !s.idleLocked() {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.cond.Wait()
	}
	return nil
}

func (s *Ingestion) idleLocked() bool {
	if s.busy {
		return false
	}
	return s.queue.Len() == 0 || (s.stopping && !s.running)
}

// run is the worker loop. Stop is its only exit.
func (s *Ingestion) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		s.mu.Lock()
		for s.queue.Len() == 0 && !s.stopping {
			s.cond.Wait()
		}
		if s.stopping {
			s.mu.Unlock()
			return
		}
		job := heap.Pop(&s.queue).(*queuedJob).job
		s.busy = true
		s.mu.Unlock()

		res := s.execute(ctx, job)
		s.report(res)

		s.mu.Lock()
		s.busy = false
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

// execute runs one job, converting panics into errors.
func (s *Ingestion) execute(ctx context.Context, job domain.Job) (res domain.JobResult) {
	res = domain.JobResult{Job: job, FileID: job.FileID, StartedAt: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("job panicked: %v", r)
		}
		res.EndedAt = time.Now()
	}()

	switch job.Function {
	case domain.JobAddFile:
		res.FileID, res.Err = s.addFile(ctx, job)
	case domain.JobSummarize:
		res.Summary, res.Err = s.summarize(ctx, job)
	}
	return res
}

func (s *Ingestion) report(res domain.JobResult) {
	job := res.Job
	if res.Err != nil {
		logger.Error("ingestion job failed",
			"job", job.ID, "function", string(job.Function),
			"url", job.URL, "folder_id", job.FolderID, "file_id", res.FileID,
			"error", res.Err)
	} else {
		logger.Info("ingestion job done",
			"job", job.ID, "function", string(job.Function),
			"file_id", res.FileID, "took", res.EndedAt.Sub(res.StartedAt).Round(time.Millisecond))
	}

	if s.onResult == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("ingestion result hook panicked", "job", job.ID, "panic", r)
		}
	}()
	s.onResult(res)
}

// addFile verifies a stored account can read the URL, records the file and,
// without a description, queues its summary at the same priority.
func (s *Ingestion) addFile(ctx context.Context, job domain.Job) (int64, error) {
	grant, err := s.registry.CheckAccess(ctx, job.URL)
	if err != nil {
		return 0, err
	}

	name := job.Name
	if name == "" {
		name = grant.File.Name
	}
	if name == "" {
		name = job.URL
	}

	fileID, err := s.projects.CreateFile(ctx, name, job.FolderID, job.URL, job.Description)
	if err != nil {
		return 0, fmt.Errorf("recording file: %w", err)
	}
	logger.Debug("file recorded", "file_id", fileID, "credential", grant.CredentialName)

	if strings.TrimSpace(job.Description) != "" || s.summarizer == nil {
		return fileID, nil
	}
	if _, err := s.Enqueue(domain.Job{
		Function: domain.JobSummarize,
		Priority: job.Priority,
		FileID:   fileID,
		URL:      job.URL,
	}); err != nil && !errors.Is(err, domain.ErrQueueStopped) {
		return fileID, err
	}
	return fileID, nil
}

// summarize downloads the file to scratch space, captions it and stores the
// caption. The scratch copy is always removed.
func (s *Ingestion) summarize(ctx context.Context, job domain.Job) (string, error) {
	if s.summarizer == nil {
		return "", domain.ErrLLMUnavailable
	}

	url := job.URL
	if url == "" {
		f, err := s.projects.GetFile(ctx, job.FileID)
		if err != nil {
			return "", fmt.Errorf("loading file %d: %w", job.FileID, err)
		}
		url = f.URL
	}

	conn, err := s.registry.Resolve(url)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.scratchDir, 0700); err != nil {
		return "", fmt.Errorf("creating scratch dir: %w", err)
	}
	dest := filepath.Join(s.scratchDir, uuid.NewString())
	path, err := conn.Download(ctx, url, dest)
	if path != "" {
		defer removeScratch(path)
	}
	if err != nil {
		return "", err
	}

	if !s.summarizer.Supports(path) {
		return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filepath.Ext(path))
	}
	summary, err := s.summarizer.Summarize(ctx, path)
	if err != nil {
		return "", err
	}

	if err := s.projects.UpdateFileSummary(ctx, job.FileID, summary); err != nil {
		return "", fmt.Errorf("storing summary: %w", err)
	}
	return summary, nil
}

func removeScratch(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not remove scratch file", "path", path, "error", err)
	}
}
