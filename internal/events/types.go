package events

import "time"

// EventType represents the type of WebSocket event
type EventType string

const (
	// EventTypeDetection represents a moderation detection event
	EventTypeDetection EventType = "detection"
	// EventTypeRequestLog represents a request logging event
	EventTypeRequestLog EventType = "request_log"
	// EventTypeSystemStatus represents a system status event
	EventTypeSystemStatus EventType = "system_status"
	// EventTypeConnection represents connection events
	EventTypeConnection EventType = "connection"
)

// Event represents a WebSocket event sent to dashboard clients
type Event struct {
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"request_id,omitempty"`
}

// DetectionEvent summarizes one moderation pass. It carries counts and
// reasons only, never the submitted text.
type DetectionEvent struct {
	RequestID     string         `json:"request_id"`
	Action        string         `json:"action"`
	Reasons       []string       `json:"reasons"`
	Categories    map[string]int `json:"categories"`
	HateSpeech    bool           `json:"hate_speech"`
	Profanity     bool           `json:"profanity"`
	TotalFindings int            `json:"total_findings"`
	LogReference  string         `json:"log_reference,omitempty"`
	ProcessingMS  float64        `json:"processing_ms"`
}

// RequestLogEvent represents a request logging event
type RequestLogEvent struct {
	RequestID  string        `json:"request_id"`
	Method     string        `json:"method"`
	Path       string        `json:"path"`
	StatusCode int           `json:"status_code"`
	ClientIP   string        `json:"client_ip"`
	Duration   time.Duration `json:"duration"`
}

// SystemStatusEvent represents system status information
type SystemStatusEvent struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	TotalRequests    int64  `json:"total_requests"`
	TotalDetections  int64  `json:"total_detections"`
	ConnectedClients int    `json:"connected_clients"`
}

// ConnectionEvent represents WebSocket connection events
type ConnectionEvent struct {
	Action   string `json:"action"` // "connected", "disconnected"
	ClientID string `json:"client_id"`
	ClientIP string `json:"client_ip"`
}
