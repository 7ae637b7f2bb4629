package supervisor

import (
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"servd/internal/backend"
	"servd/internal/family"
)

// llama probe budget: 50 attempts at 100ms spacing, about five seconds.
// llama-server either maps the model quickly or fails fast.
const (
	llamaProbeAttempts = 50
	llamaProbeInterval = 100 * time.Millisecond
)

// llamaLauncher starts llama.cpp's llama-server as a separate OS process.
// A crash or hang inside the engine's HTTP stack cannot corrupt or block
// the supervising process.
type llamaLauncher struct {
	cfg Config
	log zerolog.Logger
}

func (l llamaLauncher) probeBudget() (int, time.Duration) {
	return llamaProbeAttempts, llamaProbeInterval
}

func (l llamaLauncher) launch() (*Handle, error) {
	cfg := l.cfg
	args := []string{
		"-m", cfg.ModelPath,
		"--host", cfg.Host,
		"--port", strconv.Itoa(cfg.Port),
		"-c", strconv.Itoa(cfg.MaxCtxSize),
		"-ngl", strconv.Itoa(cfg.GPULayers),
		// The worker serves exactly one client connection at a time.
		"--parallel", "1",
		"--no-webui",
	}
	if cfg.Threads > 0 {
		args = append(args, "-t", strconv.Itoa(cfg.Threads))
	}
	if fam := family.Resolve(cfg.ModelFamily, cfg.ModelPath); fam != "" {
		if tmpl, ok := family.Lookup(fam); ok {
			l.log.Debug().Str("family", fam).Msg("serving with family chat template")
			args = append(args, "--jinja", "--chat-template", tmpl.Template)
		}
	}
	return spawn(backend.KindLlama, cfg.LlamaBin, args, cfg, l.log)
}
