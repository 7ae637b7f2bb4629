package supervisor

import (
	"fmt"
	"io"
	"net"
	"strconv"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 8000
	defaultMaxCtxSize = 4096
	defaultLlamaBin   = "llama-server"
	defaultVLLMBin    = "python3"
)

// Config describes one serving run. It is built once per Run call and never
// mutated after the worker is launched.
type Config struct {
	Host      string
	Port      int
	ModelPath string
	// ModelFamily selects the chat template served by the llama worker.
	// Empty means "infer from the model filename".
	ModelFamily string

	// llama tuning. GPULayers is passed through verbatim: -1 offloads every
	// layer, 0 keeps them all on the CPU. Both are real values, so no
	// default is applied here; the caller resolves "unset".
	GPULayers  int
	MaxCtxSize int
	Threads    int

	// BackendArgs are extra vLLM arguments appended verbatim to the worker
	// argv after whitespace splitting. The same field is used end to end;
	// there is no per-engine alias.
	BackendArgs string

	LlamaBin string
	VLLMBin  string

	// Quiet suppresses routine worker output. It is set explicitly by the
	// caller that launches a background worker, never inferred at runtime.
	Quiet bool
	// LogWriter receives worker output when not Quiet. Nil means stderr of
	// the supervising process.
	LogWriter io.Writer
}

// withDefaults returns a copy with unset fields replaced by defaults.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.Port == 0 {
		c.Port = defaultPort
	}
	if c.MaxCtxSize == 0 {
		c.MaxCtxSize = defaultMaxCtxSize
	}
	if c.LlamaBin == "" {
		c.LlamaBin = defaultLlamaBin
	}
	if c.VLLMBin == "" {
		c.VLLMBin = defaultVLLMBin
	}
	return c
}

func (c Config) hostPort() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// APIBase returns the base URL of the worker's OpenAI-compatible API.
func (c Config) APIBase() string {
	return fmt.Sprintf("http://%s/v1", c.hostPort())
}
