package captioner

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"

	"media-gallery/internal/logging"
	"media-gallery/internal/metrics"
	"media-gallery/internal/transformcache"
)

// Classified failure causes. Handlers use these to decide whether a job is
// worth resubmitting.
var (
	ErrInvalidConfig = errors.New("caption endpoint configuration is incomplete")
	ErrCompression   = errors.New("failed to prepare image for captioning")
	ErrAuth          = errors.New("caption endpoint rejected credentials")
	ErrRateLimited   = errors.New("caption endpoint rate limit exceeded")
	ErrUpstream      = errors.New("caption endpoint returned a server error")
	ErrUnreachable   = errors.New("caption endpoint unreachable")
	ErrEmptyResponse = errors.New("caption endpoint returned no content")
)

const (
	// maxImageWidth bounds what gets shipped to the vision endpoint. Models
	// downscale internally anyway; sending more wastes upload time and tokens.
	maxImageWidth = 1024
	jpegQuality   = 80

	requestTimeout = 30 * time.Second

	// maxAttempts covers the initial request plus three retries.
	maxAttempts = 4
)

// retryDelayUnit scales the backoff between attempts; tests shorten it.
var retryDelayUnit = 2 * time.Second

// AIConfig identifies an OpenAI-compatible chat-completions endpoint with
// vision support.
type AIConfig struct {
	URL    string `json:"url"`
	Key    string `json:"key"`
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// Job asks for a caption of one image under the media root.
type Job struct {
	ImagePath string   `json:"imagePath"`
	AIConfig  AIConfig `json:"aiConfig"`
}

// Result reports the outcome of a caption job.
type Result struct {
	Success bool   `json:"success"`
	Caption string `json:"caption,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Captioner turns images into text descriptions via a remote vision model.
type Captioner struct {
	mediaDir string
	cache    *transformcache.Cache
	client   *http.Client
}

// New creates a Captioner rooted at mediaDir. The cache may be nil, in
// which case every job re-encodes its image.
func New(mediaDir string, cache *transformcache.Cache) *Captioner {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     30 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
		DialContext: (&net.Dialer{
			Timeout: 10 * time.Second,
		}).DialContext,
	}
	return &Captioner{
		mediaDir: mediaDir,
		cache:    cache,
		client: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// Generate runs one caption job to completion, retrying transient endpoint
// failures. Any terminal failure evicts the job's cached compressed image so
// a later retry starts from the original file.
func (c *Captioner) Generate(ctx context.Context, job Job) (string, error) {
	cfg := job.AIConfig
	if cfg.URL == "" || cfg.Key == "" || cfg.Model == "" || cfg.Prompt == "" {
		return "", fmt.Errorf("%w: url, key, model, and prompt are all required", ErrInvalidConfig)
	}

	absPath := filepath.Join(c.mediaDir, filepath.FromSlash(job.ImagePath))
	cacheKey := transformcache.Key(absPath, maxImageWidth, jpegQuality)

	encoded, err := c.compressedImage(absPath, cacheKey)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrCompression, job.ImagePath, err)
	}

	caption, err := c.requestCaption(ctx, cfg, encoded)
	if err != nil {
		if c.cache != nil {
			c.cache.Remove(cacheKey)
		}
		return "", err
	}
	return caption, nil
}

// compressedImage returns the JPEG bytes to embed in the request, serving
// from the transform cache when possible.
func (c *Captioner) compressedImage(absPath, cacheKey string) ([]byte, error) {
	if c.cache != nil {
		if buf, ok := c.cache.Get(cacheKey); ok {
			return buf, nil
		}
	}

	f, err := os.Open(absPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	if img.Bounds().Dx() > maxImageWidth {
		img = imaging.Resize(img, maxImageWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	out := buf.Bytes()
	if c.cache != nil {
		c.cache.Set(cacheKey, out)
	}
	return out, nil
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// requestCaption posts the image to the endpoint, retrying transport errors
// and 5xx responses with a linearly growing delay. Client errors (4xx) are
// never retried.
func (c *Captioner) requestCaption(ctx context.Context, cfg AIConfig, jpegData []byte) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: cfg.Model,
		Messages: []chatMessage{{
			Role: "user",
			Content: []contentPart{
				{Type: "text", Text: cfg.Prompt},
				{Type: "image_url", ImageURL: &imageURL{
					URL: "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpegData),
				}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal caption request: %w", err)
	}

	endpoint := strings.TrimSuffix(cfg.URL, "/") + "/v1/chat/completions"

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			metrics.CaptionRetries.Inc()
			delay := time.Duration(attempt-1) * retryDelayUnit
			logging.Debug("Retrying caption request in %v (attempt %d/%d)", delay, attempt, maxAttempts)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		caption, retryable, err := c.attempt(ctx, endpoint, cfg.Key, body)
		if err == nil {
			return caption, nil
		}
		if !retryable {
			return "", err
		}
		lastErr = err
	}
	return "", lastErr
}

// attempt performs a single request. The second return value reports whether
// the failure is worth retrying.
func (c *Captioner) attempt(ctx context.Context, endpoint, key string, body []byte) (string, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, fmt.Errorf("failed to build caption request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", false, fmt.Errorf("%w: status %d", ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", false, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode >= 500:
		return "", true, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	case resp.StatusCode >= 400:
		return "", false, fmt.Errorf("caption endpoint returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", true, fmt.Errorf("%w: reading response: %v", ErrUnreachable, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", false, fmt.Errorf("failed to parse caption response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", false, ErrEmptyResponse
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), false, nil
}
