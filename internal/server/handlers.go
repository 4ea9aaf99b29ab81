package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pageguard/pageguard/internal/events"
	"github.com/pageguard/pageguard/internal/moderation"
	"github.com/pageguard/pageguard/internal/transform"
	"go.uber.org/zap"
)

// moderateRequest is the body of POST /v1/moderate.
type moderateRequest struct {
	Text   string `json:"text"`
	Action string `json:"action,omitempty"`
	// DiscardOnHateSpeech lets the extension discard the whole text instead
	// of individual sentences when hate speech is found and action is remove
	DiscardOnHateSpeech *bool `json:"discard_on_hate_speech,omitempty"`
}

// moderateResponse is the pipeline output consumed by the extension.
type moderateResponse struct {
	ProcessedText string   `json:"processed_text"`
	Action        string   `json:"action"`
	Reasons       []string `json:"reasons"`
	LogReference  string   `json:"log_reference,omitempty"`
}

// handleModerate runs the full pipeline: cached or fresh detection, optional
// classifier merge, transformation, and log persistence. It always answers
// with a well-formed response; partial failures degrade, they never 500.
func (s *Server) handleModerate(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)
	start := time.Now()

	var req moderateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actionName := req.Action
	if actionName == "" {
		actionName = s.config.Moderation.DefaultAction
	}
	action, err := transform.ParseAction(actionName)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Detection: cache first, regex pass on miss
	var result moderation.Result
	cached := false
	if s.cache != nil {
		if hit, ok := s.cache.Get(r.Context(), req.Text); ok {
			result = *hit
			cached = true
		}
	}
	if !cached {
		result = s.detector.Detect(req.Text)
		if s.cache != nil {
			if err := s.cache.Set(r.Context(), req.Text, result); err != nil {
				log.Debug("Result caching failed", zap.Error(err))
			}
		}
	}

	// Optional classifier enrichment, strictly best-effort
	if s.classifier != nil && s.config.Classifier.Enabled {
		remote, err := s.classifier.Classify(r.Context(), req.Text)
		if err != nil {
			log.Warn("Classifier unavailable, using regex result", zap.Error(err))
		} else {
			result.Merge(remote)
		}
	}

	opts := transform.Options{DiscardOnHateSpeech: s.config.Moderation.DiscardOnHateSpeech}
	if req.DiscardOnHateSpeech != nil {
		opts.DiscardOnHateSpeech = *req.DiscardOnHateSpeech
	}

	output := s.transformer.ApplyWithOptions(req.Text, result, action, opts)

	// Persist the encryption log; a store failure costs recoverability of
	// this one response, not the response itself
	var reference string
	if len(output.Log) > 0 && s.store != nil {
		reference, err = s.store.Append(r.Context(), output.Log)
		if err != nil {
			log.Error("Failed to persist encryption log", zap.Error(err))
			reference = ""
		}
	}

	reasons := result.Reasons()
	duration := time.Since(start)
	log.LogModeration(string(action), reasons, result.TotalFindings(), duration)

	if !result.Empty() {
		categories := make(map[string]int, len(result.SensitiveInfo))
		for cat, items := range result.SensitiveInfo {
			categories[string(cat)] = len(items)
		}
		s.hub.BroadcastEvent(events.Event{
			Type:      events.EventTypeDetection,
			Timestamp: time.Now(),
			RequestID: requestID,
			Data: events.DetectionEvent{
				RequestID:     requestID,
				Action:        string(action),
				Reasons:       reasons,
				Categories:    categories,
				HateSpeech:    result.HateSpeech,
				Profanity:     result.Profanity,
				TotalFindings: result.TotalFindings(),
				LogReference:  reference,
				ProcessingMS:  float64(duration.Nanoseconds()) / 1e6,
			},
		})
	}

	writeJSON(w, http.StatusOK, moderateResponse{
		ProcessedText: output.ProcessedText,
		Action:        string(action),
		Reasons:       reasons,
		LogReference:  reference,
	})
}

// recoverRequest is the body of POST /v1/recover. Entries may be supplied
// inline or looked up by reference.
type recoverRequest struct {
	ProcessedText string               `json:"processed_text"`
	LogReference  string               `json:"log_reference,omitempty"`
	Entries       []transform.LogEntry `json:"entries,omitempty"`
}

// recoverResponse carries best-effort recovered text.
type recoverResponse struct {
	RecoveredText string   `json:"recovered_text"`
	Errors        []string `json:"errors,omitempty"`
}

// handleRecover restores original text from an encryption log.
func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	var req recoverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	entries := req.Entries
	if len(entries) == 0 && req.LogReference != "" {
		if s.store == nil {
			writeJSONError(w, http.StatusBadRequest, "no log store configured")
			return
		}
		var err error
		entries, err = s.store.Read(r.Context(), req.LogReference)
		if err != nil {
			log.Warn("Log batch lookup failed", zap.Error(err))
			writeJSONError(w, http.StatusNotFound, "log reference not found")
			return
		}
	}

	recovered, errs := s.recoverer.Recover(req.ProcessedText, entries)

	resp := recoverResponse{RecoveredText: recovered}
	for _, err := range errs {
		resp.Errors = append(resp.Errors, err.Error())
	}

	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error body.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
