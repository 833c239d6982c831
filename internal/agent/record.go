package agent

import "github.com/vampirenirmal/outliner/internal/schema"

// CallRecord is the persisted log entry of one transport call.
type CallRecord struct {
	Name           string                 `json:"-"`
	Messages       []Message              `json:"messages"`
	Model          string                 `json:"model"`
	Settings       CallSettings           `json:"settings"`
	ResponseFormat *schema.ResponseFormat `json:"response_format"`
	ResponseTime   float64                `json:"response_time"`
	Outcome        string                 `json:"outcome"`
	Response       string                 `json:"response,omitempty"`
}
