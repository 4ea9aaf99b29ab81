package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/pageguard/pageguard/internal/config"
	"github.com/pageguard/pageguard/internal/moderation"
	"go.uber.org/zap"
)

// ErrUnavailable wraps every transport, timeout, or decoding failure of the
// remote classifier. Callers always fall back to the regex-only result.
var ErrUnavailable = errors.New("classifier unavailable")

// Client calls the optional remote classifier. It is strictly best-effort:
// one attempt per text, bounded by the configured timeout, and any failure
// leaves the regex result in charge.
type Client struct {
	httpClient *http.Client
	config     config.ClassifierConfig
	logger     *zap.Logger
}

// New creates a classifier client.
func New(cfg config.ClassifierConfig, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		config:     cfg,
		logger:     logger,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

// Classify submits the text for remote classification. A nil result with a
// nil error means the classifier declined to answer; both are treated the
// same by callers.
func (c *Client) Classify(ctx context.Context, text string) (*moderation.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Classifier request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Classifier returned non-OK status", zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	result, err := DecodeResult(raw)
	if err != nil {
		c.logger.Warn("Classifier response undecodable", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return result, nil
}

// jsonBlock extracts the outermost JSON object from noisy model output.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// DecodeResult tolerantly decodes a classifier response: first as a plain
// JSON document, then by extracting a JSON block from surrounding prose.
// Missing fields decode to their zero values and are filled from the regex
// result during merging.
func DecodeResult(raw []byte) (*moderation.Result, error) {
	var result moderation.Result
	if err := json.Unmarshal(raw, &result); err == nil {
		normalize(&result)
		return &result, nil
	}

	block := jsonBlock.Find(raw)
	if block == nil {
		return nil, fmt.Errorf("no JSON object in response")
	}

	result = moderation.Result{}
	if err := json.Unmarshal(block, &result); err != nil {
		return nil, fmt.Errorf("embedded JSON undecodable: %w", err)
	}
	normalize(&result)
	return &result, nil
}

// normalize replaces nil collections so merging never touches a nil map.
func normalize(r *moderation.Result) {
	if r.FlaggedWords == nil {
		r.FlaggedWords = []string{}
	}
	if r.FlaggedSentences == nil {
		r.FlaggedSentences = []string{}
	}
	if r.SensitiveInfo == nil {
		r.SensitiveInfo = make(map[moderation.Category][]string)
	}
}
