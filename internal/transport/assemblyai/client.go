// Package assemblyai is a minimal speech-to-text client: upload the audio,
// create a transcript job, poll until completed or the wait budget runs out.
// Transcripts come back in the source language; translation happens upstream.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

// Client talks to the AssemblyAI v2 API with one pooled HTTP client shared
// across concurrent calls.
type Client struct {
	http         *http.Client
	baseURL      string
	apiKey       string
	language     string
	pollInterval time.Duration
	waitTimeout  time.Duration
	logger       *zap.Logger
}

// Config holds STT provider settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	PollInterval time.Duration
	WaitTimeout  time.Duration
	Logger       *zap.Logger
}

// New creates an STT client.
func New(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.assemblyai.com/v2"
	}
	language := cfg.Language
	if language == "" {
		language = "hi"
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	waitTimeout := cfg.WaitTimeout
	if waitTimeout <= 0 {
		waitTimeout = 10 * time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		http:         &http.Client{Timeout: 60 * time.Second},
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		language:     language,
		pollInterval: pollInterval,
		waitTimeout:  waitTimeout,
		logger:       logger,
	}
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"` // queued, processing, completed, error
	Text   string `json:"text"`
	Error  string `json:"error"`
}

// Transcribe uploads the audio file and waits for the transcript, bounded by
// the configured wait timeout.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	uploadURL, err := c.upload(ctx, audioPath)
	if err != nil {
		return "", err
	}

	transcriptID, err := c.createTranscript(ctx, uploadURL)
	if err != nil {
		return "", err
	}

	c.logger.Debug("transcript created",
		zap.String("file", audioPath),
		zap.String("transcript_id", transcriptID),
	)

	return c.waitForTranscript(ctx, transcriptID)
}

func (c *Client) upload(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio %s: %w", audioPath, err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", f)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	var resp uploadResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	if resp.UploadURL == "" {
		return "", fmt.Errorf("upload response missing url: %w", domain.ErrUpstreamError)
	}
	return resp.UploadURL, nil
}

func (c *Client) createTranscript(ctx context.Context, uploadURL string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"audio_url":          uploadURL,
		"language_code":      c.language,
		"language_detection": false,
	})
	if err != nil {
		return "", fmt.Errorf("marshal transcript request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transcript", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build transcript request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var resp transcriptResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", fmt.Errorf("create transcript: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("transcript response missing id: %w", domain.ErrUpstreamError)
	}
	return resp.ID, nil
}

func (c *Client) waitForTranscript(ctx context.Context, transcriptID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.waitTimeout)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("transcription timed out: %w: %w", domain.ErrUpstreamUnavailable, ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transcript/"+transcriptID, http.NoBody)
			if err != nil {
				return "", fmt.Errorf("build poll request: %w", err)
			}
			req.Header.Set("Authorization", c.apiKey)

			var resp transcriptResponse
			if err := c.doJSON(req, &resp); err != nil {
				return "", fmt.Errorf("poll transcript %s: %w", transcriptID, err)
			}

			switch resp.Status {
			case "completed":
				return resp.Text, nil
			case "error":
				return "", fmt.Errorf("transcription failed: %s: %w", resp.Error, domain.ErrUpstreamError)
			default:
				// queued / processing: keep polling
			}
		}
	}
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("status %d: %s: %w", resp.StatusCode, string(body), domain.ErrUpstreamError)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w: %w", domain.ErrUpstreamError, err)
	}
	return nil
}
