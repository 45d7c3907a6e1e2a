package progress

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Stage identifies a point in the download lifecycle.
type Stage string

const (
	StageRunStarted     Stage = "run_started"
	StageTOCFetched     Stage = "toc_fetched"
	StageChapterSkipped Stage = "chapter_skipped"
	StageChapterSaved   Stage = "chapter_saved"
	StageChapterFailed  Stage = "chapter_failed"
	StageRunFinished    Stage = "run_finished"
)

// Event is one structured progress notification. Control flow never depends
// on events; they feed logs, progress displays and tests.
type Event struct {
	RunID uuid.UUID
	Stage Stage
	Book  string
	URL   string
	Index int
	Title string
	Err   error

	// Run-level counters, set on TOC and finish stages.
	Total   int
	Saved   int
	Failed  int
	Skipped int
}

// Emitter receives events as the pipeline advances. Implementations must be
// safe for concurrent use; the workers emit in parallel.
type Emitter interface {
	Emit(Event)
}

// Nop returns an emitter that drops everything.
func Nop() Emitter { return nopEmitter{} }

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// Multi fans each event out to every emitter, in order.
func Multi(emitters ...Emitter) Emitter { return multiEmitter(emitters) }

type multiEmitter []Emitter

func (m multiEmitter) Emit(e Event) {
	for _, em := range m {
		em.Emit(e)
	}
}

// WithRun stamps a run identity onto every event passing through, so the
// components underneath never need to know which run they serve.
func WithRun(next Emitter, runID uuid.UUID, book string) Emitter {
	return runEmitter{next: next, runID: runID, book: book}
}

type runEmitter struct {
	next  Emitter
	runID uuid.UUID
	book  string
}

func (r runEmitter) Emit(e Event) {
	e.RunID = r.runID
	e.Book = r.book
	r.next.Emit(e)
}

// LogSink writes events to a zap logger, one line per event.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger.Named("progress")}
}

func (s *LogSink) Emit(e Event) {
	logger := s.logger.With(zap.String("run_id", e.RunID.String()), zap.String("book", e.Book))
	switch e.Stage {
	case StageRunStarted:
		logger.Info("run started", zap.String("url", e.URL))
	case StageTOCFetched:
		logger.Info("table of contents fetched", zap.String("url", e.URL), zap.Int("chapters", e.Total))
	case StageChapterSkipped:
		logger.Debug("chapter already downloaded", zap.Int("index", e.Index), zap.String("url", e.URL))
	case StageChapterSaved:
		logger.Info("chapter saved", zap.Int("index", e.Index), zap.String("title", e.Title))
	case StageChapterFailed:
		logger.Warn("chapter failed", zap.Int("index", e.Index), zap.String("url", e.URL), zap.Error(e.Err))
	case StageRunFinished:
		logger.Info("run finished",
			zap.Int("total", e.Total),
			zap.Int("saved", e.Saved),
			zap.Int("failed", e.Failed),
			zap.Int("skipped", e.Skipped))
	default:
		logger.Info("progress", zap.String("stage", string(e.Stage)))
	}
}
