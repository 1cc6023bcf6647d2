// Package imagegen is a small JSON client for an image-modification API: reference image
// URLs plus a prompt in, generated images (URL or inline base64) out.
package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Config holds the connection settings for the image API.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Request asks for N images derived from the reference Images.
type Request struct {
	Images  []string
	Prompt  string
	Size    string
	Quality string
	N       int
}

// Image is one generated image. Exactly one of URL or Data is set.
type Image struct {
	URL           string
	Data          []byte
	MimeType      string
	RevisedPrompt string
}

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("image api http %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("image api base url must be provided")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("image api key must be provided")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type imageReference struct {
	ImageURL string `json:"image_url"`
}

type editRequest struct {
	Model   string           `json:"model,omitempty"`
	Images  []imageReference `json:"images"`
	Prompt  string           `json:"prompt"`
	Size    string           `json:"size,omitempty"`
	Quality string           `json:"quality,omitempty"`
	N       int              `json:"n,omitempty"`
}

type editResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// ModifyImage sends one edit request. It does not retry; callers decide what a failure means.
func (c *Client) ModifyImage(ctx context.Context, req Request) ([]Image, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("image prompt required")
	}
	if len(req.Images) == 0 {
		return nil, errors.New("at least one reference image required")
	}
	n := req.N
	if n <= 0 {
		n = 1
	}

	body := editRequest{
		Model:   c.model,
		Prompt:  prompt,
		Size:    req.Size,
		Quality: req.Quality,
		N:       n,
	}
	for _, u := range req.Images {
		body.Images = append(body.Images, imageReference{ImageURL: u})
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("failed to encode image request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/images/edits", &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("image api request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image api response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var decoded editResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode image api response: %w", err)
	}

	images := make([]Image, 0, len(decoded.Data))
	for _, item := range decoded.Data {
		img := Image{RevisedPrompt: strings.TrimSpace(item.RevisedPrompt)}
		switch {
		case strings.TrimSpace(item.URL) != "":
			img.URL = strings.TrimSpace(item.URL)
		case strings.TrimSpace(item.B64JSON) != "":
			data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(item.B64JSON))
			if err != nil {
				return nil, fmt.Errorf("decode image base64: %w", err)
			}
			if len(data) == 0 {
				return nil, errors.New("image response contained empty b64_json")
			}
			img.Data = data
			img.MimeType = "image/png"
		default:
			continue
		}
		images = append(images, img)
	}
	if len(images) == 0 {
		return nil, errors.New("no image returned")
	}
	return images, nil
}
