package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ppiankov/glosshover/internal/model"
	"github.com/ppiankov/glosshover/internal/pipeline"
	"github.com/spf13/cobra"
)

// renderFlags are the per-pass render settings shared by annotate and batch
type renderFlags struct {
	caseSensitive bool
	firstOnly     bool
	disabledTags  []string
	limit         int
	link          bool
	noCache       bool
}

func addRenderFlags(cmd *cobra.Command, f *renderFlags) {
	cmd.Flags().BoolVar(&f.caseSensitive, "case-sensitive", true, "match terms case-sensitively")
	cmd.Flags().BoolVar(&f.firstOnly, "first-only", false, "highlight only the first occurrence of each term")
	cmd.Flags().StringSliceVar(&f.disabledTags, "disable-tag", nil, "tags whose text is never annotated (replaces the configured list)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "definition character limit (0 = unlimited)")
	cmd.Flags().BoolVar(&f.link, "link", false, "render tooltips as links to term permalinks")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the output cache")
}

// resolveRender applies glossary file overrides, then explicitly set flags, to the configured render settings
func resolveRender(cmd *cobra.Command, cfg *model.Config, src *termSource, f *renderFlags) model.RenderConfig {
	render := src.overrides.Apply(cfg.Render)

	flags := cmd.Flags()
	if flags.Changed("case-sensitive") {
		render.CaseSensitive = f.caseSensitive
	}
	if flags.Changed("first-only") {
		render.HighlightFirstOccurrence = f.firstOnly
	}
	if flags.Changed("disable-tag") {
		render.DisabledTags = f.disabledTags
	}
	if flags.Changed("limit") {
		render.DefinitionCharLimit = f.limit
	}
	if flags.Changed("link") {
		render.LinkMode = f.link
	}
	return render
}

var (
	annotateRender  renderFlags
	annotateOut     string
	annotateReport  string
	annotateTimeout time.Duration
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate <file|url|->",
	Short: "Add glossary tooltips to a single document",
	Long: `Annotate reads an HTML fragment or document (or Markdown, rendered to HTML
first) from a file, a URL or stdin, and wraps every whole-word occurrence of
a glossary term in a tooltip element.

Render settings resolve in this order: config file and environment, then the
glossary file's render section, then flags.

Example:
  glosshover annotate post.html --glossary glossary.yaml
  glosshover annotate https://example.com/post --db terms.db --out post.html
  cat post.html | glosshover annotate - -g glossary.yaml --first-only --limit 120`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVarP(&annotateOut, "out", "o", "", "output HTML path (default: stdout)")
	annotateCmd.Flags().StringVar(&annotateReport, "report", "", "output JSON report path (optional)")
	annotateCmd.Flags().DurationVar(&annotateTimeout, "timeout", 2*time.Minute, "overall timeout")
	addRenderFlags(annotateCmd, &annotateRender)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	target := args[0]
	ctx, cancel := context.WithTimeout(context.Background(), annotateTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	cfg.Render = resolveRender(cmd, cfg, src, &annotateRender)
	if annotateRender.noCache {
		cfg.Cache.Enabled = false
	}

	c, closeCache, err := openCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	p := pipeline.NewPipeline(cfg, src.source, c, log)

	out, err := p.AnnotateTarget(ctx, target)
	if err != nil {
		return fmt.Errorf("annotate failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ %d tooltip(s) from %d term(s) in %dms (state: %s, cached: %v)\n",
			out.Report.Matches, out.Report.TermCount, out.Report.DurationMS, out.Report.State, out.Report.Cached)
	}

	if err := pipeline.WriteOutput(out, annotateOut, annotateReport, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
