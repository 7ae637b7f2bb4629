package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"servd/pkg/types"
)

type fakeService struct {
	ready bool
	snap  types.StatusResponse
}

func (f *fakeService) Ready() bool                    { return f.ready }
func (f *fakeService) Snapshot() types.StatusResponse { return f.snap }

func TestHealthz(t *testing.T) {
	svc := &fakeService{ready: false}
	srv := httptest.NewServer(NewMux(svc, zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("not-ready healthz = %d, want 503", resp.StatusCode)
	}

	svc.ready = true
	resp, err = http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("ready healthz = %d, want 200", resp.StatusCode)
	}
}

func TestStatus(t *testing.T) {
	svc := &fakeService{
		ready: true,
		snap: types.StatusResponse{
			State:   "ready",
			Backend: "llama",
			PID:     4242,
			APIBase: "http://127.0.0.1:8000/v1",
		},
	}
	srv := httptest.NewServer(NewMux(svc, zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var got types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.State != "ready" || got.Backend != "llama" || got.PID != 4242 {
		t.Fatalf("unexpected status: %+v", got)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := httptest.NewServer(NewMux(&fakeService{}, zerolog.Nop()))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics = %d, want 200", resp.StatusCode)
	}
}
