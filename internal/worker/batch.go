package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/ppiankov/glosshover/internal/pipeline"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TargetAnnotator annotates a file path or URL
type TargetAnnotator interface {
	AnnotateTarget(ctx context.Context, target string) (*pipeline.Output, error)
}

// AnnotateJob annotates one batch target and optionally writes the result
type AnnotateJob struct {
	Index     int
	Target    string
	Annotator TargetAnnotator
	Limiter   *Limiter
	OutputDir string
}

// Execute runs the job
func (j *AnnotateJob) Execute(ctx context.Context) Result {
	res := &TargetResult{Index: j.Index, Target: j.Target}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, j.Target); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}

	out, err := j.Annotator.AnnotateTarget(ctx, j.Target)
	if err != nil {
		res.Error = err
		return res
	}
	res.Output = out

	if j.OutputDir != "" {
		htmlPath := filepath.Join(j.OutputDir, OutputName(j.Index, j.Target))
		reportPath := strings.TrimSuffix(htmlPath, ".html") + ".report.json"
		if err := pipeline.WriteOutput(out, htmlPath, reportPath, io.Discard); err != nil {
			res.Error = err
			return res
		}
		res.OutputPath = htmlPath
	}

	return res
}

// TargetResult is the outcome of one batch target
type TargetResult struct {
	Index      int
	Target     string
	Output     *pipeline.Output
	OutputPath string
	Error      error
}

// GetError returns the error from the result
func (r *TargetResult) GetError() error {
	return r.Error
}

// BatchProcessor annotates many targets concurrently
type BatchProcessor struct {
	annotator   TargetAnnotator
	concurrency int
	limiter     *Limiter
	outputDir   string
	log         *logrus.Logger
}

// NewBatchProcessor creates a batch processor. A non-positive rate disables
// per-host rate limiting.
func NewBatchProcessor(annotator TargetAnnotator, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		annotator:   annotator,
		concurrency: concurrency,
		log:         logrus.StandardLogger(),
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// WithOutputDir makes every job write <dir>/<name>.html and a JSON report
func (b *BatchProcessor) WithOutputDir(dir string) *BatchProcessor {
	b.outputDir = dir
	return b
}

// WithLogger sets the logger used for per-target progress
func (b *BatchProcessor) WithLogger(log *logrus.Logger) *BatchProcessor {
	if log != nil {
		b.log = log
	}
	return b
}

// WithHostRates applies per-host limits on top of the default rate. Hosts
// listed here are limited even when the default rate is disabled.
func (b *BatchProcessor) WithHostRates(hosts map[string]model.HostRateLimit) *BatchProcessor {
	if len(hosts) == 0 {
		return b
	}
	if b.limiter == nil {
		b.limiter = NewLimiter(float64(rate.Inf), 1)
	}
	for host, limit := range hosts {
		b.limiter.SetHostRate(host, limit.RequestsPerSecond, limit.BurstSize)
	}
	return b
}

// ProcessTargets annotates targets concurrently and returns results in input order
func (b *BatchProcessor) ProcessTargets(ctx context.Context, targets []string) ([]*TargetResult, error) {
	if len(targets) == 0 {
		return []*TargetResult{}, nil
	}

	if b.outputDir != "" {
		if err := os.MkdirAll(b.outputDir, 0755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, target := range targets {
		job := &AnnotateJob{
			Index:     i,
			Target:    target,
			Annotator: b.annotator,
			Limiter:   b.limiter,
			OutputDir: b.outputDir,
		}
		if !pool.Submit(job) {
			break
		}
	}

	results := pool.Wait()

	targetResults := make([]*TargetResult, 0, len(results))
	for _, result := range results {
		r := result.(*TargetResult)
		entry := b.log.WithField("target", r.Target)
		if r.Error != nil {
			entry.WithError(r.Error).Warn("target failed")
		} else {
			entry.WithField("matches", r.Output.Report.Matches).Info("target annotated")
		}
		targetResults = append(targetResults, r)
	}

	sort.Slice(targetResults, func(i, j int) bool {
		return targetResults[i].Index < targetResults[j].Index
	})

	if err := ctx.Err(); err != nil {
		return targetResults, err
	}
	return targetResults, nil
}

// ProcessFile reads targets from a list file and processes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*TargetResult, error) {
	targets, err := ReadTargetsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}

	return b.ProcessTargets(ctx, targets)
}

// ReadTargetsFromFile reads file paths and URLs, one per line.
// Blank lines and # comments are skipped and duplicates dropped.
func ReadTargetsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var targets []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			targets = append(targets, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return targets, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputName derives a unique, filesystem-safe output file name for a target
func OutputName(index int, target string) string {
	var base string
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		base = u.Host + strings.TrimSuffix(u.Path, path.Ext(u.Path))
	} else {
		base = filepath.Base(target)
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "document"
	}
	if len(base) > 80 {
		base = base[:80]
	}
	return fmt.Sprintf("%03d-%s.html", index+1, base)
}
