package supervisor

import (
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"servd/internal/backend"
)

// vLLM probe budget: 300 attempts at 1s spacing. Large models take minutes
// to shard and load onto GPUs.
const (
	vllmProbeAttempts = 300
	vllmProbeInterval = time.Second
)

// vllmLauncher starts vLLM's OpenAI API server as a separate OS process.
type vllmLauncher struct {
	cfg Config
	log zerolog.Logger
}

func (l vllmLauncher) probeBudget() (int, time.Duration) {
	return vllmProbeAttempts, vllmProbeInterval
}

func (l vllmLauncher) launch() (*Handle, error) {
	cfg := l.cfg
	args := []string{
		"-m", "vllm.entrypoints.openai.api_server",
		"--host", cfg.Host,
		"--port", strconv.Itoa(cfg.Port),
		"--model", cfg.ModelPath,
	}
	// Extra arguments pass through verbatim, split on whitespace. Quoting
	// beyond that is the caller's responsibility.
	if cfg.BackendArgs != "" {
		args = append(args, strings.Fields(cfg.BackendArgs)...)
	}
	return spawn(backend.KindVLLM, cfg.VLLMBin, args, cfg, l.log)
}
