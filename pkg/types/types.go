package types

// StatusResponse is the JSON payload returned by GET /status.
type StatusResponse struct {
	// Supervisor lifecycle state (created, launching, ready, failed, shutdown).
	// example: ready
	State string `json:"state" example:"ready"`
	// Serving backend for the current worker (llama or vllm).
	// example: llama
	Backend string `json:"backend,omitempty" example:"llama"`
	// Path of the model artifact being served.
	// example: /home/user/models/merlinite-7b-q4.gguf
	ModelPath string `json:"model_path,omitempty" example:"/home/user/models/merlinite-7b-q4.gguf"`
	// Base URL of the worker's OpenAI-compatible API.
	// example: http://127.0.0.1:8000/v1
	APIBase string `json:"api_base,omitempty" example:"http://127.0.0.1:8000/v1"`
	// Process ID of the worker, 0 when no worker is running.
	// example: 12345
	PID int `json:"pid,omitempty" example:"12345"`
	// Unique ID assigned to the worker for this launch.
	// example: 7f9c24e8-2f95-4a5e-9b1c-9d6d9a2f3b11
	RunID string `json:"run_id,omitempty" example:"7f9c24e8-2f95-4a5e-9b1c-9d6d9a2f3b11"`
	// Last error observed by the supervisor, empty when healthy.
	Err string `json:"error,omitempty"`
}

// Model is a single entry from the worker's model-listing endpoint.
type Model struct {
	// Model identifier as reported by the serving backend.
	// example: merlinite-7b-q4.gguf
	ID string `json:"id" example:"merlinite-7b-q4.gguf"`
	// Object type, always "model" for OpenAI-compatible servers.
	Object string `json:"object,omitempty" example:"model"`
	// Owner label reported by the backend.
	OwnedBy string `json:"owned_by,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: supervisor not ready
	Error string `json:"error" example:"supervisor not ready"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
}
