package cli

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ppiankov/claimgraph/internal/api"
	"github.com/ppiankov/claimgraph/internal/model"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve pair selection, scoring and analysis over HTTP",
	Long: `Serve starts the HTTP API:

  GET  /healthz          liveness
  GET  /metrics          Prometheus metrics
  POST /api/v1/pairs     candidate pair selection
  POST /api/v1/score     graph scoring of given edges
  POST /api/v1/analyze   full analysis (requires a configured LLM provider)

Example:
  claimgraph serve --addr :8080
  CLAIMGRAPH_LLM_PROVIDER=gemini GEMINI_API_KEY=... claimgraph serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	addPipelineFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	analyzer, stack, cfg, log, err := buildAnalyzer(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer func() { _ = stack.Close() }()
	defer startTracing(cmd.Context(), cfg, log)()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}
	if !analyzer.HasClassifier() {
		fmt.Fprintf(os.Stderr, "Warning: no LLM provider configured, /api/v1/analyze will answer 503\n")
	}

	if cfg.Log.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	server := api.NewServer(api.RouterConfig{
		HealthHandler: api.NewHealthHandler(),
		GraphHandler:  api.NewGraphHandler(analyzer, cfg, log),
		Logger:        log,
		TraceService:  traceService(cfg),
	})
	return server.Run(cmd.Context(), addr)
}

// traceService names the server in HTTP spans, empty when tracing is off
func traceService(cfg *model.Config) string {
	if !cfg.Tracing.Enabled {
		return ""
	}
	if cfg.Tracing.ServiceName != "" {
		return cfg.Tracing.ServiceName
	}
	return "claimgraph"
}
