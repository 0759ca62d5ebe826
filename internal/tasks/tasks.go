package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tidalx/internal/catalog"
	"github.com/desertthunder/tidalx/internal/formatter"
	"github.com/desertthunder/tidalx/internal/models"
	"github.com/desertthunder/tidalx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers   = 5
	MaxWorkers       = 10
	DefaultRateLimit = 5.0
	DefaultMaxPages  = 20
	ManifestFile     = "export_manifest.json"
)

// Lister is the browsing surface a backup reads from.
type Lister interface {
	List(ctx context.Context, category string, refresh bool) ([]models.Item, error)
	ListChildren(ctx context.Context, category, path string, refresh bool) ([]models.Item, error)
}

// BackupOpts contains configuration for a library backup.
type BackupOpts struct {
	Categories []string         // Categories to export (default: all)
	Format     formatter.Format // Export format (default: json)
	OutputDir  string           // Base output directory (default: tidal_export_{epoch})
	NumWorkers int              // Concurrent workers (default: 5, max: 10)
	RateLimit  float64          // Page requests per second (default: 5)
	MaxPages   int              // Page cap per collection (default: 20)
	Children   bool             // Also export the tracks under each browsable item
}

// ExportResult is the outcome of exporting one category or one browsable item.
type ExportResult struct {
	Category string   `json:"category"`
	ID       string   `json:"id,omitempty"`
	Title    string   `json:"title"`
	Items    int      `json:"items"`
	File     string   `json:"file,omitempty"`
	Success  bool     `json:"success"`
	Error    string   `json:"error,omitempty"`
	children []models.Item
}

// BackupResult summarizes a backup and is written as the manifest.
type BackupResult struct {
	OutputDirectory string         `json:"output_directory"`
	Format          string         `json:"format"`
	StartedAt       time.Time      `json:"started_at"`
	Total           int            `json:"total"`
	Successful      int            `json:"successful"`
	Failed          int            `json:"failed"`
	Results         []ExportResult `json:"results"`
	ManifestPath    string         `json:"-"`
}

// exportJob names a collection to page through: a category, or one item's children when parent is set.
type exportJob struct {
	category string
	parent   *models.Item
}

func (j exportJob) name() string {
	if j.parent == nil {
		return j.category
	}
	return fmt.Sprintf("%s / %s", j.category, j.parent.Title)
}

// Exporter backs up a catalog to files.
type Exporter struct {
	source Lister
	logger *log.Logger
	now    func() time.Time
}

// NewExporter creates an Exporter reading from source.
func NewExporter(source Lister, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Exporter{source: source, logger: shared.WithLogger(logger, "task", "backup"), now: time.Now}
}

// Backup exports every requested category, then the children of each browsable item when opts.Children is set,
// and finally writes a manifest summarizing the run.
//
// Failed collections are recorded in the result and do not stop the backup. A cancelled ctx stops queuing new work.
func (e *Exporter) Backup(ctx context.Context, prog chan<- ProgressUpdate, opts BackupOpts) (*BackupResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}
	opts = withDefaults(opts, e.now())

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BackupResult{OutputDirectory: opts.OutputDir, Format: string(opts.Format), StartedAt: e.now()}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make([]exportJob, len(opts.Categories))
	for i, c := range opts.Categories {
		jobs[i] = exportJob{category: c}
	}
	categoryResults := e.runPool(ctx, prog, limiter, FetchCategories, jobs, opts)
	result.add(categoryResults)

	if opts.Children && ctx.Err() == nil {
		var childJobs []exportJob
		for _, res := range categoryResults {
			for _, it := range res.children {
				childJobs = append(childJobs, exportJob{category: res.Category, parent: &it})
			}
		}
		if len(childJobs) > 0 {
			result.add(e.runPool(ctx, prog, limiter, FetchChildren, childJobs, opts))
		}
	}

	manifestPath := filepath.Join(opts.OutputDir, ManifestFile)
	if err := writeManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	sendProgress(prog, manifestUpdate(manifestPath))
	e.logger.Info("backup complete", "dir", opts.OutputDir, "ok", result.Successful, "failed", result.Failed)

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// runPool exports jobs with a bounded worker pool and returns results in job order.
func (e *Exporter) runPool(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	limiter *rate.Limiter,
	phase Phase,
	jobs []exportJob,
	opts BackupOpts,
) []ExportResult {
	type indexed struct {
		i   int
		res ExportResult
	}

	queue := make(chan int, len(jobs))
	results := make(chan indexed, len(jobs))

	var wg sync.WaitGroup
	for range min(opts.NumWorkers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range queue {
				if ctx.Err() != nil {
					return
				}
				results <- indexed{i, e.exportOne(ctx, limiter, jobs[i], opts)}
			}
		}()
	}

	sendProgress(prog, startPhaseUpdate(phase, len(jobs)))
	for i := range jobs {
		queue <- i
	}
	close(queue)

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]ExportResult, len(jobs))
	filled := make([]bool, len(jobs))
	completed := 0
	for r := range results {
		completed++
		out[r.i], filled[r.i] = r.res, true
		if r.res.Success {
			sendProgress(prog, exportCompletedUpdate(phase, completed, len(jobs), jobs[r.i].name(), r.res.Items))
		} else {
			sendProgress(prog, exportFailedUpdate(phase, completed, len(jobs), jobs[r.i].name(), fmt.Errorf("%s", r.res.Error)))
		}
	}

	// Jobs never picked up because ctx was cancelled are dropped.
	kept := out[:0]
	for i, r := range out {
		if filled[i] {
			kept = append(kept, r)
		}
	}
	return kept
}

// exportOne pages through one collection and writes it to a file.
func (e *Exporter) exportOne(ctx context.Context, limiter *rate.Limiter, job exportJob, opts BackupOpts) ExportResult {
	res := ExportResult{Category: job.category, Title: job.category}
	fetch := func(refresh bool) ([]models.Item, error) {
		return e.source.List(ctx, job.category, refresh)
	}
	file := filepath.Join(opts.OutputDir, slug(job.category)+extension(opts.Format))

	if job.parent != nil {
		res.ID, res.Title = job.parent.ID, job.parent.Title
		path := job.parent.ID
		fetch = func(refresh bool) ([]models.Item, error) {
			return e.source.ListChildren(ctx, job.category, path, refresh)
		}
		file = filepath.Join(opts.OutputDir, slug(job.category), slug(job.parent.ID)+extension(opts.Format))
	}

	items, err := collect(ctx, limiter, fetch, opts.MaxPages)
	if err != nil {
		res.Error = err.Error()
		e.logger.Warn("export failed", "collection", job.name(), "error", err)
		return res
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		res.Error = fmt.Sprintf("failed to create directory: %v", err)
		return res
	}
	if err := formatter.WriteExport(file, opts.Format, job.name(), items); err != nil {
		res.Error = err.Error()
		return res
	}

	res.Items = len(items)
	res.File = file
	res.Success = true
	if job.parent == nil {
		for _, it := range items {
			if !it.Playable() {
				res.children = append(res.children, it)
			}
		}
	}
	return res
}

// collect requests pages until one is empty, holds only items already seen or maxPages is reached.
// The first request resets the remote cursor.
func collect(
	ctx context.Context,
	limiter *rate.Limiter,
	fetch func(refresh bool) ([]models.Item, error),
	maxPages int,
) ([]models.Item, error) {
	seen := map[string]bool{}
	var all []models.Item

	for page := range maxPages {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
		items, err := fetch(page == 0)
		if err != nil {
			return nil, err
		}

		fresh := 0
		for _, it := range items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			all = append(all, it)
			fresh++
		}
		if fresh == 0 {
			break
		}
	}
	if all == nil {
		all = []models.Item{}
	}
	return all, nil
}

func (r *BackupResult) add(results []ExportResult) {
	for _, res := range results {
		r.Total++
		if res.Success {
			r.Successful++
		} else {
			r.Failed++
		}
		r.Results = append(r.Results, res)
	}
}

func withDefaults(opts BackupOpts, now time.Time) BackupOpts {
	if len(opts.Categories) == 0 {
		opts.Categories = catalog.Categories()
	}
	if opts.Format == "" || opts.Format == formatter.Table {
		opts.Format = formatter.JSON
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("tidal_export_%d", now.Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = DefaultWorkers
	}
	if opts.NumWorkers > MaxWorkers {
		opts.NumWorkers = MaxWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	return opts
}

func writeManifest(result *BackupResult, path string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func extension(f formatter.Format) string {
	switch f {
	case formatter.CSV:
		return ".csv"
	case formatter.Markdown:
		return ".md"
	case formatter.Text:
		return ".txt"
	default:
		return ".json"
	}
}

var unsafeChars = regexp.MustCompile(`[^a-z0-9._-]+`)

// slug makes s safe to use as a file name.
func slug(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_")
	if s = strings.Trim(s, "_."); s == "" {
		return "untitled"
	}
	return s
}
