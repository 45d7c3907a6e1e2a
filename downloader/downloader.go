package downloader

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"novel-downloader/fetch"
	"novel-downloader/model"
	"novel-downloader/progress"
	"novel-downloader/rule"
	"novel-downloader/storage"
)

// Config carries the run parameters the orchestrator needs.
type Config struct {
	OutputDir   string
	Concurrency int
	Politeness  time.Duration
}

// Downloader turns a table-of-contents URL into a book directory full of
// chapter files, resuming where an earlier run stopped.
type Downloader struct {
	cfg     Config
	rules   *rule.Resolver
	fetcher Fetcher
	emitter progress.Emitter
	logger  *zap.Logger
}

func New(cfg Config, rules *rule.Resolver, fetcher Fetcher, emitter progress.Emitter, logger *zap.Logger) *Downloader {
	if emitter == nil {
		emitter = progress.Nop()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		cfg:     cfg,
		rules:   rules,
		fetcher: fetcher,
		emitter: emitter,
		logger:  logger.Named("downloader"),
	}
}

// Download fetches the table of contents at target and downloads every
// chapter it links to. Chapter failures are tallied, not fatal; the only
// errors returned are the ones that make the whole run impossible.
func (d *Downloader) Download(ctx context.Context, target, name, author string) error {
	site, err := d.rules.Resolve(target)
	if err != nil {
		return fmt.Errorf("failed to resolve site rule: %w", err)
	}

	runID, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to create run id: %w", err)
	}
	emitter := progress.WithRun(d.emitter, runID, name)
	emitter.Emit(progress.Event{Stage: progress.StageRunStarted, URL: target})

	d.logger.Info("fetching table of contents",
		zap.String("book", name),
		zap.String("url", target),
		zap.String("site", site.Name))
	tocHTML, err := d.fetcher.Fetch(ctx, target, fetch.EncodingAuto)
	if err != nil {
		return fmt.Errorf("failed to fetch table of contents: %w", err)
	}

	jobs, total, err := discoverJobs(tocHTML, target, site)
	if err != nil {
		return fmt.Errorf("failed to parse table of contents: %w", err)
	}
	emitter.Emit(progress.Event{Stage: progress.StageTOCFetched, URL: target, Total: total})
	if len(jobs) == 0 {
		d.logger.Warn("no chapter links matched the list selector, nothing to do",
			zap.String("url", target),
			zap.String("selector", site.Rules.ChapterList))
		emitter.Emit(progress.Event{Stage: progress.StageRunFinished, Total: total})
		return nil
	}

	st, err := storage.New(d.cfg.OutputDir, name, author, d.logger)
	if err != nil {
		return fmt.Errorf("failed to prepare book directory: %w", err)
	}
	if done := st.Count(); done > 0 {
		d.logger.Info("resuming previous run", zap.Int("completed", done), zap.Int("total", total))
	}

	meta := &model.MetaInfo{
		Name:          name,
		URL:           target,
		TotalChapters: total,
		Status:        model.MetaStatusDownloading,
	}
	if err := st.SaveMeta(meta); err != nil {
		d.logger.Warn("failed to save meta info", zap.Error(err))
	}

	sched := NewScheduler(d.fetcher, st, SchedulerConfig{
		Limit:   d.cfg.Concurrency,
		Delay:   d.cfg.Politeness,
		Emitter: emitter,
		Logger:  d.logger,
	})
	sum := sched.Run(ctx, jobs, site)

	d.logger.Info("download finished",
		zap.String("book", name),
		zap.Int("total", total),
		zap.Int("saved", sum.Saved),
		zap.Int("failed", sum.Failed),
		zap.Int("skipped", sum.Skipped))
	emitter.Emit(progress.Event{
		Stage:   progress.StageRunFinished,
		Total:   total,
		Saved:   sum.Saved,
		Failed:  sum.Failed,
		Skipped: sum.Skipped,
	})
	return nil
}

// discoverJobs walks the chapter list and builds one job per usable link.
// total counts every matched link; links without the configured attribute
// are dropped without consuming an index, so job indices stay dense.
func discoverJobs(html, target string, site *rule.Site) ([]*model.ChapterJob, int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, 0, err
	}
	base, err := url.Parse(target)
	if err != nil {
		return nil, 0, err
	}

	var (
		jobs  []*model.ChapterJob
		total int
	)
	doc.Find(site.Rules.ChapterList).Each(func(_ int, sel *goquery.Selection) {
		total++
		href := strings.TrimSpace(sel.AttrOr(site.Rules.ChapterLinkAttr, ""))
		if href == "" {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		jobs = append(jobs, &model.ChapterJob{
			Index:  len(jobs) + 1,
			URL:    base.ResolveReference(ref).String(),
			Status: model.StatusPending,
		})
	})
	return jobs, total, nil
}
