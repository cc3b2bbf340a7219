package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"investnotes/internal/utils"
	"investnotes/models"
)

// PageStore remembers finished pages so an interrupted run can resume.
type PageStore interface {
	GetPage(ctx context.Context, filename string) (*models.PageResult, error)
	SavePage(ctx context.Context, runID string, page *models.PageResult) error
}

// Processor runs every method over every page, one call at a time.
type Processor struct {
	methods            []Recognizer
	logger             *utils.Logger
	tracker            *utils.PerformanceTracker
	delay              time.Duration
	store              PageStore
	runID              string
	checkpointDir      string
	checkpointInterval int

	lastCall time.Time
}

type Option func(*Processor)

// WithDelay sets the minimum pause between two model calls.
func WithDelay(d time.Duration) Option {
	return func(p *Processor) { p.delay = d }
}

func WithStore(s PageStore, runID string) Option {
	return func(p *Processor) {
		p.store = s
		p.runID = runID
	}
}

// WithCheckpoints writes ocr_progress_<n>.json to dir every interval pages.
func WithCheckpoints(dir string, interval int) Option {
	return func(p *Processor) {
		p.checkpointDir = dir
		p.checkpointInterval = interval
	}
}

func WithTracker(t *utils.PerformanceTracker) Option {
	return func(p *Processor) { p.tracker = t }
}

func NewProcessor(logger *utils.Logger, methods []Recognizer, opts ...Option) *Processor {
	p := &Processor{
		methods: methods,
		logger:  logger,
		tracker: utils.NewPerformanceTracker(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Tracker() *utils.PerformanceTracker {
	return p.tracker
}

func (p *Processor) wait(ctx context.Context) error {
	if p.delay <= 0 || p.lastCall.IsZero() {
		return nil
	}
	d := time.Until(p.lastCall.Add(p.delay))
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// ProcessPage reads one photo with every method. Method failures are kept
// as placeholder text; only an unreadable file or a cancelled context is an
// error.
func (p *Processor) ProcessPage(ctx context.Context, path string, pageNum int) (*models.PageResult, error) {
	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	page := &models.PageResult{
		Filename: filepath.Base(path),
		PageNum:  pageNum,
		Results:  make(map[string]string, len(p.methods)),
	}

	for _, m := range p.methods {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}

		p.tracker.StartStep(m.Name())
		text, err := m.Recognize(ctx, img)
		p.lastCall = time.Now()
		if err == nil && text == "" {
			err = ErrEmptyResult
		}
		if err != nil {
			p.tracker.FailStep()
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Warn("%s failed on %s: %v", m.Name(), page.Filename, err)
			text = FailureText(m.Name(), err)
		} else {
			p.tracker.EndStep()
		}

		page.Methods = append(page.Methods, m.Name())
		page.Results[m.Name()] = text
	}

	page.BestMethod, page.BestText = ChooseBest(page.Methods, page.Results)
	p.logger.Info("Page %d (%s): best method %s, %d characters",
		pageNum, page.Filename, page.BestMethod, utf8.RuneCountInString(page.BestText))
	return page, nil
}

// ChooseBest picks the longest successful result, counting characters.
// Ties go to the earlier method. With no success the first raw result is
// returned under AllFailed.
func ChooseBest(methods []string, results map[string]string) (string, string) {
	best, bestText, bestLen := "", "", -1
	for _, m := range methods {
		text := results[m]
		if IsFailure(text) {
			continue
		}
		if n := utf8.RuneCountInString(text); n > bestLen {
			best, bestText, bestLen = m, text, n
		}
	}
	if best != "" {
		return best, bestText
	}
	if len(methods) == 0 {
		return AllFailed, ""
	}
	return AllFailed, results[methods[0]]
}

// ProcessAll transcribes every photo in dir in page order. Pages found in the
// store are reused. On cancellation the pages finished so far are returned
// with the context error.
func (p *Processor) ProcessAll(ctx context.Context, dir string) ([]models.PageResult, error) {
	files, err := SortedImages(dir)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Starting to process %d images", len(files))

	results := make([]models.PageResult, 0, len(files))
	for i, path := range files {
		pageNum := i + 1

		if page := p.cached(ctx, path, pageNum); page != nil {
			results = append(results, *page)
			continue
		}

		p.tracker.StartStep("page")
		page, err := p.ProcessPage(ctx, path, pageNum)
		if err != nil {
			p.tracker.FailStep()
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			p.logger.Error("Failed to process %s: %v", path, err)
			continue
		}
		p.tracker.EndStep()
		results = append(results, *page)

		if p.store != nil {
			if err := p.store.SavePage(ctx, p.runID, page); err != nil {
				p.logger.Error("Failed to store page %s: %v", page.Filename, err)
			}
		}

		if p.checkpointInterval > 0 && pageNum%p.checkpointInterval == 0 {
			name := filepath.Join(p.checkpointDir, fmt.Sprintf("ocr_progress_%d.json", pageNum))
			if err := utils.WriteJSON(name, results); err != nil {
				p.logger.Error("Failed to save checkpoint: %v", err)
			} else {
				p.logger.Info("Saved progress %d/%d to %s", pageNum, len(files), name)
			}
		}
	}

	p.logger.Info("Completed processing %d images", len(files))
	return results, nil
}

// cached returns the stored result for path when it holds usable text.
func (p *Processor) cached(ctx context.Context, path string, pageNum int) *models.PageResult {
	if p.store == nil {
		return nil
	}
	page, err := p.store.GetPage(ctx, filepath.Base(path))
	if err != nil || page.BestMethod == AllFailed {
		return nil
	}
	page.PageNum = pageNum
	p.logger.Debug("Reusing stored result for %s", page.Filename)
	return page
}
