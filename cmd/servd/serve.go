package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"servd/internal/backend"
	"servd/internal/config"
	"servd/internal/httpapi"
	"servd/internal/oai"
	"servd/internal/supervisor"
)

var version = "dev"

// defaultGPULayers moves every layer onto the GPU when --gpu-layers is not
// given. An explicit 0 is a real value (all layers stay on the CPU) and is
// never rewritten.
const defaultGPULayers = -1

// runServeFn is swapped out in tests to observe the merged config without
// starting a worker.
var runServeFn = runServe

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "servd",
		Short:         "Supervise a local OpenAI-compatible model-serving worker",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(serveCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the servd version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "servd", version)
		},
	}
}

func serveCmd() *cobra.Command {
	var (
		cfgPath   string
		verbose   bool
		gpuLayers int
		flags     config.Config
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a local model server",
		Long: "Start a local model server. The serving backend is determined from\n" +
			"the model file (GGUF serves with llama-server, anything else with\n" +
			"vLLM on Linux) unless pinned with --backend.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("gpu-layers") {
				flags.GPULayers = &gpuLayers
			}
			cfg, err := mergedConfig(cmd, cfgPath, flags)
			if err != nil {
				return err
			}
			return runServeFn(cfg, verbose)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&cfgPath, "config", "", "Path to a YAML/JSON/TOML config file")
	fl.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	fl.StringVar(&flags.ModelPath, "model-path", "", "Path to the model used during generation")
	fl.StringVar(&flags.Host, "host", "", "Host the worker binds to")
	fl.IntVar(&flags.Port, "port", 0, "Port the worker binds to")
	fl.IntVar(&gpuLayers, "gpu-layers", defaultGPULayers, "Number of layers to put on the GPU (-1 = all, 0 = none)")
	fl.IntVar(&flags.NumThreads, "num-threads", 0, "Number of CPU threads to use")
	fl.IntVar(&flags.MaxCtxSize, "max-ctx-size", 0, "Maximum number of tokens for prompt and response combined")
	fl.StringVar(&flags.ModelFamily, "model-family", "", "Model family used to pick the chat template")
	fl.StringVar(&flags.Backend, "backend", "", "Serving backend (llama or vllm); auto-detected when empty")
	fl.StringVar(&flags.BackendArgs, "backend-args", "", "Extra arguments passed to the backend verbatim, e.g. '--dtype auto --enable-lora'")
	fl.StringVar(&flags.LlamaBin, "llama-bin", "", "llama-server binary to launch for GGUF models")
	fl.StringVar(&flags.VLLMBin, "vllm-bin", "", "Python interpreter hosting vLLM")
	fl.StringVar(&flags.ControlAddr, "control-addr", "", "Control API listen address, e.g. :9090 (disabled when empty)")
	fl.BoolVar(&flags.Quiet, "quiet", false, "Suppress routine worker output")
	fl.StringVar(&flags.LogFile, "log-file", "", "File to write server logs to")
	fl.BoolVar(&flags.TLS.Insecure, "tls-insecure", false, "Disable TLS verification when probing the worker")
	fl.StringVar(&flags.TLS.ClientCertFile, "tls-client-cert", "", "TLS client certificate file")
	fl.StringVar(&flags.TLS.ClientKeyFile, "tls-client-key", "", "TLS client key file")
	fl.StringVar(&flags.TLS.ClientKeyPasswd, "tls-client-key-pass", "", "TLS client key password")
	return cmd
}

// mergedConfig loads the config file (if given) and overlays every flag
// the user set explicitly. Precedence: flag > file > default.
func mergedConfig(cmd *cobra.Command, cfgPath string, flags config.Config) (config.Config, error) {
	cfg := config.Config{}
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	fl := cmd.Flags()
	if fl.Changed("model-path") {
		cfg.ModelPath = flags.ModelPath
	}
	if fl.Changed("host") {
		cfg.Host = flags.Host
	}
	if fl.Changed("port") {
		cfg.Port = flags.Port
	}
	if fl.Changed("gpu-layers") {
		cfg.GPULayers = flags.GPULayers
	}
	if cfg.GPULayers == nil {
		v := defaultGPULayers
		cfg.GPULayers = &v
	}
	if fl.Changed("num-threads") {
		cfg.NumThreads = flags.NumThreads
	}
	if fl.Changed("max-ctx-size") {
		cfg.MaxCtxSize = flags.MaxCtxSize
	}
	if fl.Changed("model-family") {
		cfg.ModelFamily = flags.ModelFamily
	}
	if fl.Changed("backend") {
		cfg.Backend = flags.Backend
	}
	if fl.Changed("backend-args") {
		cfg.BackendArgs = flags.BackendArgs
	}
	if fl.Changed("llama-bin") {
		cfg.LlamaBin = flags.LlamaBin
	}
	if fl.Changed("vllm-bin") {
		cfg.VLLMBin = flags.VLLMBin
	}
	if fl.Changed("control-addr") {
		cfg.ControlAddr = flags.ControlAddr
	}
	if fl.Changed("quiet") {
		cfg.Quiet = flags.Quiet
	}
	if fl.Changed("log-file") {
		cfg.LogFile = flags.LogFile
	}
	if fl.Changed("tls-insecure") {
		cfg.TLS.Insecure = flags.TLS.Insecure
	}
	if fl.Changed("tls-client-cert") {
		cfg.TLS.ClientCertFile = flags.TLS.ClientCertFile
	}
	if fl.Changed("tls-client-key") {
		cfg.TLS.ClientKeyFile = flags.TLS.ClientKeyFile
	}
	if fl.Changed("tls-client-key-pass") {
		cfg.TLS.ClientKeyPasswd = flags.TLS.ClientKeyPasswd
	}
	if cfg.ModelPath == "" {
		return cfg, errors.New("--model-path (or model_path in the config file) is required")
	}
	return cfg, nil
}

func runServe(cfg config.Config, verbose bool) error {
	logger, closeLog, err := newLogger(verbose, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closeLog()

	if _, serr := os.Stat(cfg.ModelPath); serr != nil {
		logger.Warn().Str("model", cfg.ModelPath).Err(serr).
			Msg("model file not accessible, the worker will likely fail to start")
	}

	// Pinned backends are validated; otherwise the model file decides.
	var kind backend.Kind
	if cfg.Backend != "" {
		kind, err = backend.Validate(cfg.Backend, runtime.GOOS)
	} else {
		kind, err = backend.Determine(cfg.ModelPath, runtime.GOOS)
	}
	if err != nil {
		return err
	}
	logger.Info().Str("model", cfg.ModelPath).Str("backend", string(kind)).Msg("serving model")

	var workerOut io.Writer
	if cfg.LogFile != "" {
		workerOut = logger
	}
	gpuLayers := defaultGPULayers
	if cfg.GPULayers != nil {
		gpuLayers = *cfg.GPULayers
	}
	sup := supervisor.New(supervisor.Config{
		Host:        cfg.Host,
		Port:        cfg.Port,
		ModelPath:   cfg.ModelPath,
		ModelFamily: cfg.ModelFamily,
		GPULayers:   gpuLayers,
		MaxCtxSize:  cfg.MaxCtxSize,
		Threads:     cfg.NumThreads,
		BackendArgs: cfg.BackendArgs,
		LlamaBin:    cfg.LlamaBin,
		VLLMBin:     cfg.VLLMBin,
		Quiet:       cfg.Quiet,
		LogWriter:   workerOut,
	}, kind, logger)

	// Termination handling is installed only around the worker's lifetime.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx, oai.TLSOptions{
		Insecure:        cfg.TLS.Insecure,
		ClientCertFile:  cfg.TLS.ClientCertFile,
		ClientKeyFile:   cfg.TLS.ClientKeyFile,
		ClientKeyPasswd: cfg.TLS.ClientKeyPasswd,
	}); err != nil {
		return err
	}
	defer sup.Shutdown()
	logger.Info().Str("api_base", sup.Snapshot().APIBase).Msg("worker ready, press Ctrl+C to shut down")

	g, gctx := errgroup.WithContext(ctx)
	if cfg.ControlAddr != "" {
		srv := &http.Server{Addr: cfg.ControlAddr, Handler: httpapi.NewMux(sup, logger)}
		g.Go(func() error {
			logger.Info().Str("addr", cfg.ControlAddr).Msg("control API listening")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

// newLogger builds the process logger: console output by default, JSON to
// the log file when one is configured.
func newLogger(verbose bool, logFile string) (zerolog.Logger, func(), error) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	closeFn := func() {}
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closeFn, nil
}
