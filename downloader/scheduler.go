package downloader

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"novel-downloader/extract"
	"novel-downloader/model"
	"novel-downloader/progress"
	"novel-downloader/rule"
)

// Fetcher grabs one URL and returns its decoded body.
type Fetcher interface {
	Fetch(ctx context.Context, url string, encodingHint string) (string, error)
}

// Store is the slice of the storage layer the workers need.
type Store interface {
	IsDone(url string) bool
	Save(idx int, title, content, url string) error
}

// Summary tallies the terminal states of one run.
type Summary struct {
	Saved   int
	Failed  int
	Skipped int
}

// SchedulerConfig carries the scheduling knobs explicitly.
type SchedulerConfig struct {
	Limit   int           // concurrently in-flight jobs
	Delay   time.Duration // politeness pause before a slot is released
	Emitter progress.Emitter
	Logger  *zap.Logger
}

// Scheduler drives chapter jobs through fetch, extract and persist with a
// bounded number of jobs in flight.
type Scheduler struct {
	fetcher Fetcher
	store   Store
	emitter progress.Emitter
	logger  *zap.Logger
	limit   int
	delay   time.Duration
}

func NewScheduler(fetcher Fetcher, store Store, cfg SchedulerConfig) *Scheduler {
	if cfg.Emitter == nil {
		cfg.Emitter = progress.Nop()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Limit < 1 {
		cfg.Limit = 1
	}
	return &Scheduler{
		fetcher: fetcher,
		store:   store,
		emitter: cfg.Emitter,
		logger:  cfg.Logger.Named("scheduler"),
		limit:   cfg.Limit,
		delay:   cfg.Delay,
	}
}

type outcome int

const (
	outcomeSaved outcome = iota
	outcomeSkipped
	outcomeFailed
)

// Run drives every job to Saved or Failed and returns the tallies. One
// job's failure never stops its siblings, and Run returns only after every
// job reached a terminal state.
func (s *Scheduler) Run(ctx context.Context, jobs []*model.ChapterJob, site *rule.Site) Summary {
	var (
		mu  sync.Mutex
		sum Summary
	)

	var g errgroup.Group
	g.SetLimit(s.limit)

	for _, job := range jobs {
		job := job
		g.Go(func() error {
			result := s.runJob(ctx, job, site)

			mu.Lock()
			switch result {
			case outcomeSaved:
				sum.Saved++
			case outcomeSkipped:
				sum.Skipped++
			default:
				sum.Failed++
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors, Wait is purely the completion barrier.
	_ = g.Wait()

	return sum
}

func (s *Scheduler) runJob(ctx context.Context, job *model.ChapterJob, site *rule.Site) outcome {
	if s.store.IsDone(job.URL) {
		job.Status = model.StatusSaved
		s.emitter.Emit(progress.Event{Stage: progress.StageChapterSkipped, Index: job.Index, URL: job.URL})
		return outcomeSkipped
	}

	job.Status = model.StatusFetching
	html, err := s.fetcher.Fetch(ctx, job.URL, site.Encoding)
	if err != nil {
		s.fail(job, "failed to fetch chapter", err)
		return outcomeFailed
	}

	record, err := extract.Chapter(html, site)
	if err != nil {
		s.fail(job, "failed to extract chapter", err)
		s.pause(ctx)
		return outcomeFailed
	}
	job.Status = model.StatusExtracted

	if err := s.store.Save(job.Index, record.Title, record.Content, job.URL); err != nil {
		s.fail(job, "failed to save chapter", err)
		s.pause(ctx)
		return outcomeFailed
	}

	job.Status = model.StatusSaved
	s.emitter.Emit(progress.Event{Stage: progress.StageChapterSaved, Index: job.Index, URL: job.URL, Title: record.Title})
	s.pause(ctx)
	return outcomeSaved
}

func (s *Scheduler) fail(job *model.ChapterJob, msg string, err error) {
	job.Status = model.StatusFailed
	s.logger.Warn(msg, zap.Int("index", job.Index), zap.String("url", job.URL), zap.Error(err))
	s.emitter.Emit(progress.Event{Stage: progress.StageChapterFailed, Index: job.Index, URL: job.URL, Err: err})
}

// pause applies the politeness delay without outliving a canceled run.
func (s *Scheduler) pause(ctx context.Context) {
	if s.delay <= 0 {
		return
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
