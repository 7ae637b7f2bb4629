package backend

import (
	"fmt"
	"strings"

	"servd/internal/sniff"
)

// Kind identifies a serving backend.
type Kind string

const (
	// KindLlama serves GGUF models with llama.cpp's llama-server.
	KindLlama Kind = "llama"
	// KindVLLM serves non-GGUF models with vLLM's OpenAI API server.
	// Linux-only (including WSL).
	KindVLLM Kind = "vllm"
)

func (k Kind) String() string { return string(k) }

// Supported lists the backends a user may request by name.
var Supported = []Kind{KindLlama, KindVLLM}

// Validate checks that name refers to a supported backend usable on goos.
// Comparison is case-insensitive so user input like "vLLM" is accepted.
func Validate(name, goos string) (Kind, error) {
	k := Kind(strings.ToLower(name))
	found := false
	for _, s := range Supported {
		if k == s {
			found = true
			break
		}
	}
	if !found {
		return "", &UnsupportedBackendError{
			Backend: name,
			Message: fmt.Sprintf("Backend '%s' is not supported.", name),
		}
	}
	if k == KindVLLM && goos != "linux" {
		return "", &UnsupportedBackendError{
			Backend: name,
			Message: "vLLM only supports Linux platform (including WSL)",
		}
	}
	return k, nil
}

// Select picks the backend for an artifact given its sniffed format and the
// host OS. GGUF always selects llama regardless of OS; anything else falls
// back to vLLM, which is only valid on Linux.
func Select(format sniff.Format, modelPath, goos string) (Kind, error) {
	if format == sniff.FormatGGUF {
		return KindLlama, nil
	}
	if goos != "linux" {
		return "", &UnsupportedBackendError{
			Backend: string(KindVLLM),
			Message: fmt.Sprintf(
				"the model file %s is not a GGUF format so the backend was determined to be vLLM; however vLLM only supports Linux platform (including WSL)",
				modelPath),
		}
	}
	return KindVLLM, nil
}

// Determine sniffs the model artifact at modelPath and selects a backend
// for it on goos.
func Determine(modelPath, goos string) (Kind, error) {
	format, err := sniff.Classify(modelPath)
	if err != nil {
		return "", err
	}
	return Select(format, modelPath, goos)
}
