package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"gend/internal/common/fsutil"
	"gend/internal/config"
	"gend/internal/httpapi"
	"gend/internal/modelsvc"
	"gend/internal/registry"
)

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// splitCSV splits a comma-separated flag value, trimming whitespace and
// dropping empty items.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type options struct {
	addr       string
	configPath string
	modelName  string
	modelsDir  string
	device     string
	logLevel   string
	logJSON    bool

	maxInputTokens int
	maxBodyBytes   int64
	ctxSize        int
	threads        int
	gpuLayers      int

	corsOrigins string
	corsMethods string
	corsHeaders string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "gend",
		Short:         "HTTP daemon for text generation with a pretrained language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.configPath != "" {
				cfg, err := config.Load(opts.configPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", opts.configPath, err)
				}
				mergeConfig(opts, cfg, cmd.Flags().Changed)
			}
			return run(opts)
		},
	}
	f := root.Flags()
	f.StringVar(&opts.addr, "addr", envOr("GEND_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	f.StringVar(&opts.configPath, "config", envOr("GEND_CONFIG", ""), "Optional config file (.yaml/.json/.toml)")
	f.StringVar(&opts.modelName, "model", envOr("GEND_MODEL", "t5-small"), "Model name to load at startup")
	f.StringVar(&opts.modelsDir, "models-dir", envOr("GEND_MODELS_DIR", "~/models/llm"), "Directory to scan for *.gguf model files")
	f.StringVar(&opts.device, "device", envOr("GEND_DEVICE", "auto"), "Inference device: cpu|cuda|auto")
	f.StringVar(&opts.logLevel, "log-level", envOr("GEND_LOG_LEVEL", "info"), "Log level: debug|info|warn|error")
	f.BoolVar(&opts.logJSON, "log-json", false, "Emit JSON logs instead of console output")
	f.IntVar(&opts.maxInputTokens, "max-input-tokens", 0, "Token budget for input truncation (0=default)")
	f.Int64Var(&opts.maxBodyBytes, "max-body-bytes", 0, "Maximum request body size in bytes (0=default)")
	f.IntVar(&opts.ctxSize, "ctx-size", 0, "Model context size (0=backend default)")
	f.IntVar(&opts.threads, "threads", 0, "Inference threads (0=backend default)")
	f.IntVar(&opts.gpuLayers, "gpu-layers", 0, "Layers to offload on cuda (0=backend default)")
	f.StringVar(&opts.corsOrigins, "cors-origins", envOr("GEND_CORS_ORIGINS", ""), "Comma-separated CORS origins; empty disables CORS")
	f.StringVar(&opts.corsMethods, "cors-methods", "GET,POST", "Comma-separated CORS methods")
	f.StringVar(&opts.corsHeaders, "cors-headers", "Content-Type,X-Log-Level", "Comma-separated CORS headers")
	return root
}

// mergeConfig fills unset options from the config file. Flags (and
// their env defaults) win when both are present.
func mergeConfig(opts *options, cfg config.Config, changed func(string) bool) {
	if cfg.Addr != "" && !changed("addr") {
		opts.addr = cfg.Addr
	}
	if cfg.ModelName != "" && !changed("model") {
		opts.modelName = cfg.ModelName
	}
	if cfg.ModelsDir != "" && !changed("models-dir") {
		opts.modelsDir = cfg.ModelsDir
	}
	if cfg.Device != "" && !changed("device") {
		opts.device = cfg.Device
	}
	if cfg.LogLevel != "" && !changed("log-level") {
		opts.logLevel = cfg.LogLevel
	}
	if cfg.MaxInputTokens > 0 && !changed("max-input-tokens") {
		opts.maxInputTokens = cfg.MaxInputTokens
	}
	if cfg.MaxBodyBytes > 0 && !changed("max-body-bytes") {
		opts.maxBodyBytes = cfg.MaxBodyBytes
	}
	if cfg.CtxSize > 0 && !changed("ctx-size") {
		opts.ctxSize = cfg.CtxSize
	}
	if cfg.Threads > 0 && !changed("threads") {
		opts.threads = cfg.Threads
	}
	if cfg.GPULayers > 0 && !changed("gpu-layers") {
		opts.gpuLayers = cfg.GPULayers
	}
	if cfg.CORSEnabled && !changed("cors-origins") {
		opts.corsOrigins = strings.Join(cfg.CORSAllowedOrigins, ",")
		if len(cfg.CORSAllowedMethods) > 0 {
			opts.corsMethods = strings.Join(cfg.CORSAllowedMethods, ",")
		}
		if len(cfg.CORSAllowedHeaders) > 0 {
			opts.corsHeaders = strings.Join(cfg.CORSAllowedHeaders, ",")
		}
	}
}

func newLogger(opts *options) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(opts.logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if opts.logJSON {
		log = zerolog.New(os.Stderr)
	} else {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	return log.Level(lvl).With().Timestamp().Logger()
}

func run(opts *options) error {
	log := newLogger(opts)

	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(opts.maxBodyBytes)
	origins := splitCSV(opts.corsOrigins)
	httpapi.SetCORSOptions(len(origins) > 0, origins, splitCSV(opts.corsMethods), splitCSV(opts.corsHeaders))

	// Model file resolution failure is not fatal: the daemon starts
	// degraded and the load failure shows up in /model/status.
	modelPath := ""
	if dir, err := fsutil.ExpandHome(opts.modelsDir); err != nil || !fsutil.PathExists(dir) {
		log.Warn().Str("models_dir", opts.modelsDir).Msg("models directory not found")
	} else if p, err := registry.Resolve(dir, opts.modelName); err != nil {
		log.Warn().Err(err).Str("model", opts.modelName).Msg("model file not resolved")
	} else {
		modelPath = p
	}

	backend := modelsvc.NewBackend(modelsvc.BackendOptions{
		CtxSize:   opts.ctxSize,
		Threads:   opts.threads,
		GPULayers: opts.gpuLayers,
	})
	svc := modelsvc.New(backend, modelsvc.Config{
		ModelName:      opts.modelName,
		ModelPath:      modelPath,
		Device:         modelsvc.DetectDevice(opts.device),
		MaxInputTokens: opts.maxInputTokens,
	}, log)

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{Addr: opts.addr, Handler: httpapi.NewMux(svc)}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", opts.addr).Str("model", opts.modelName).Msg("gend listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Startup hook: load the model off the serving path. The daemon
	// answers health endpoints while (and after) the load runs; a
	// failed load is never retried.
	go func() {
		if err := svc.Load(baseCtx); err != nil {
			log.Error().Err(err).Msg("startup load failed, serving degraded")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
		return err
	}
	// Shutdown hook for the model is a no-op: it is never unloaded.
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
