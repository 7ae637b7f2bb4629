package backend

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"servd/internal/sniff"
)

func writeGGUF(t *testing.T, dir string) string {
	t.Helper()
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], 0x46554747) // "GGUF"
	binary.LittleEndian.PutUint32(buf[4:8], 3)
	p := filepath.Join(dir, "model.gguf")
	if err := os.WriteFile(p, buf, 0o644); err != nil {
		t.Fatalf("write gguf: %v", err)
	}
	return p
}

func writePlainText(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "model.safetensors")
	if err := os.WriteFile(p, []byte("just some text"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestDetermine_GGUFAnyOS(t *testing.T) {
	p := writeGGUF(t, t.TempDir())
	for _, goos := range []string{"linux", "darwin", "windows"} {
		k, err := Determine(p, goos)
		if err != nil {
			t.Fatalf("goos=%s: %v", goos, err)
		}
		if k != KindLlama {
			t.Fatalf("goos=%s: expected llama, got %s", goos, k)
		}
	}
}

func TestDetermine_NonGGUFLinux(t *testing.T) {
	p := writePlainText(t, t.TempDir())
	k, err := Determine(p, "linux")
	if err != nil {
		t.Fatalf("determine: %v", err)
	}
	if k != KindVLLM {
		t.Fatalf("expected vllm, got %s", k)
	}
}

func TestDetermine_NonGGUFWindows(t *testing.T) {
	p := writePlainText(t, t.TempDir())
	_, err := Determine(p, "windows")
	if err == nil {
		t.Fatalf("expected error for non-GGUF model on windows")
	}
	if !IsUnsupportedBackend(err) {
		t.Fatalf("expected UnsupportedBackendError, got %T", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "not a GGUF format") {
		t.Fatalf("message must state the model is not GGUF: %q", msg)
	}
	if !strings.Contains(msg, "Linux") {
		t.Fatalf("message must state the Linux requirement: %q", msg)
	}
	if !strings.Contains(msg, p) {
		t.Fatalf("message must name the model path: %q", msg)
	}
}

func TestSelect_Pure(t *testing.T) {
	cases := []struct {
		name    string
		format  sniff.Format
		goos    string
		want    Kind
		wantErr bool
	}{
		{"gguf linux", sniff.FormatGGUF, "linux", KindLlama, false},
		{"gguf darwin", sniff.FormatGGUF, "darwin", KindLlama, false},
		{"unknown linux", sniff.FormatUnknown, "linux", KindVLLM, false},
		{"unknown darwin", sniff.FormatUnknown, "darwin", "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			k, err := Select(tc.format, "/path/to/model", tc.goos)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("select: %v", err)
			}
			if k != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, k)
			}
		})
	}
}

func TestValidate_CaseInsensitive(t *testing.T) {
	for _, name := range []string{"VLLM", "vllm", "vLLM"} {
		k, err := Validate(name, "linux")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if k != KindVLLM {
			t.Fatalf("%s: expected vllm, got %s", name, k)
		}
	}
	for _, name := range []string{"LLAMA", "llama", "LlAmA"} {
		k, err := Validate(name, "darwin")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if k != KindLlama {
			t.Fatalf("%s: expected llama, got %s", name, k)
		}
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	_, err := Validate("mistral", "linux")
	if err == nil {
		t.Fatalf("expected error for unknown backend")
	}
	if !IsUnsupportedBackend(err) {
		t.Fatalf("expected UnsupportedBackendError, got %T", err)
	}
	if got, want := err.Error(), "Backend 'mistral' is not supported."; got != want {
		t.Fatalf("message %q, want %q", got, want)
	}
}

func TestValidate_VLLMOffLinux(t *testing.T) {
	_, err := Validate("vllm", "darwin")
	if err == nil {
		t.Fatalf("expected error for vllm off linux")
	}
	if !strings.Contains(err.Error(), "Linux") {
		t.Fatalf("message must mention Linux: %q", err.Error())
	}
}

func TestDetermine_MissingFileFallsBack(t *testing.T) {
	// A missing file is classified as not-GGUF rather than failing the sniff.
	k, err := Determine(filepath.Join(t.TempDir(), "missing.gguf"), "linux")
	if err != nil {
		t.Fatalf("determine: %v", err)
	}
	if k != KindVLLM {
		t.Fatalf("expected vllm, got %s", k)
	}
}
