package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/pipeline"
	"github.com/ppiankov/glosshover/internal/server"
	"github.com/spf13/cobra"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the annotator over HTTP",
	Long: `Serve exposes the annotator as a JSON API:

  GET  /api/health     liveness
  GET  /api/terms      configured glossary
  POST /api/annotate   {"content": "...", "terms": [...], "render": {...}}

Terms and render settings in the request body are optional and fall back to
the configured glossary and render settings.

Example:
  glosshover serve --glossary glossary.yaml --addr :8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: config server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	if !verbose {
		gin.SetMode(gin.ReleaseMode)
	}

	// Without a glossary every request must carry its own terms
	var source glossary.Source
	src, err := openSource(cfg, log)
	switch {
	case errors.Is(err, errNoGlossary):
		log.Warn("no glossary configured, requests must include terms")
	case err != nil:
		return err
	default:
		defer func() { _ = src.Close() }()
		source = src.source
		cfg.Render = src.overrides.Apply(cfg.Render)
	}

	c, closeCache, err := openCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	p := pipeline.NewPipeline(cfg, source, c, log)
	router := server.SetupRouter(server.NewHandler(p, source, log), log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(ctx, cfg.Server.Addr, router, log)
}
