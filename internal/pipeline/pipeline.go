package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"ontoforge/internal/artifact"
	"ontoforge/internal/config"
	"ontoforge/internal/logging"
	"ontoforge/internal/origin"
	"ontoforge/internal/publish"
	"ontoforge/internal/report"
)

// Options select which stages a run executes.
type Options struct {
	// Clean removes persisted artifacts before the run.
	Clean bool
	// MergeOnly reruns merge and views from persisted per-origin artifacts.
	MergeOnly bool
	// Publish uploads the artifacts even when publishing is not enabled in
	// the configuration.
	Publish bool
}

func (o Options) mode() string {
	if o.MergeOnly {
		return "merge-only"
	}
	return "full"
}

type Pipeline struct {
	cfg      *config.Config
	origins  *origin.Set
	store    *artifact.Store
	logger   *log.Logger
	out      io.Writer
	uploader publish.Uploader

	report  *report.PipelineReport
	metrics *report.Metrics
}

func New(cfg *config.Config, logger *log.Logger) (*Pipeline, error) {
	origins, err := cfg.OriginSet()
	if err != nil {
		return nil, err
	}
	logger = logging.OrDefault(logger)
	return &Pipeline{
		cfg:     cfg,
		origins: origins,
		store:   artifact.NewStore(cfg.Output.Dir, logger),
		logger:  logger,
		out:     os.Stdout,
	}, nil
}

// WithOutput redirects the progress lines.
func (p *Pipeline) WithOutput(w io.Writer) *Pipeline {
	p.out = w
	return p
}

// WithUploader replaces the S3 client used by the publish stage.
func (p *Pipeline) WithUploader(u publish.Uploader) *Pipeline {
	p.uploader = u
	return p
}

func (p *Pipeline) Store() *artifact.Store {
	return p.store
}

// Report returns the report of the last run.
func (p *Pipeline) Report() *report.PipelineReport {
	return p.report
}

// Metrics returns the metrics of the last run.
func (p *Pipeline) Metrics() *report.Metrics {
	return p.metrics
}

// Run executes the stages selected by opts. The report and metrics are
// written even when a stage fails.
func (p *Pipeline) Run(ctx context.Context, opts Options) (err error) {
	p.report = report.NewPipelineReport(opts.mode(), p.cfg.Output.Dir)
	p.report.Inputs = append([]string(nil), p.cfg.Inputs...)
	p.metrics = report.NewMetrics()
	p.report.AttachMetrics(p.metrics)

	defer func() {
		if ferr := p.finish(); ferr != nil {
			if err == nil {
				err = ferr
			} else {
				p.logger.Error("failed to write run report", "err", ferr)
			}
		}
	}()

	if opts.Clean {
		if err := p.cleanStage(); err != nil {
			return err
		}
	}

	if opts.MergeOnly {
		fmt.Fprintln(p.out, "⚡ Merge-only run: reusing persisted per-origin artifacts.")
		p.report.SkipStage(stageExtract, "merge-only")
		p.report.SkipStage(stageHierarchies, "merge-only")
	} else {
		if err := p.extractStage(); err != nil {
			return err
		}
		if err := p.hierarchiesStage(); err != nil {
			return err
		}
	}

	if err := p.mergeStage(ctx); err != nil {
		return err
	}
	if err := p.viewsStage(); err != nil {
		return err
	}

	if opts.Publish || p.cfg.Publish.Enabled {
		if _, err := p.publishStage(ctx); err != nil {
			return err
		}
	} else {
		p.report.SkipStage(stagePublish, "publishing disabled")
	}

	fmt.Fprintf(p.out, "✅ Pipeline finished. Artifacts in %s\n", p.cfg.Output.Dir)
	return nil
}

// Publish uploads the current artifact directory without rebuilding.
func (p *Pipeline) Publish(ctx context.Context) ([]string, error) {
	if p.report == nil {
		p.report = report.NewPipelineReport("publish", p.cfg.Output.Dir)
	}
	return p.publishStage(ctx)
}

// Clean removes the persisted artifacts.
func (p *Pipeline) Clean() (int, error) {
	return p.store.Clean()
}

func (p *Pipeline) finish() error {
	if err := p.report.Save(p.store.Path(artifact.ReportFile)); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	path := p.cfg.Metrics.Textfile
	if path == "" {
		path = p.store.Path(artifact.MetricsFile)
	}
	if err := p.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}
