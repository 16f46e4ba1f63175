package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackfinity-intake/internal/models"
)

// Adapter delivers a finished record to the intake endpoint. The
// original transport was opaque to the caller; against a real HTTP
// backend the response is readable, so the adapter decodes it and
// reports a rejected submission as an error instead of guessing.
type Adapter struct {
	EndpointURL string
	Client      *http.Client
}

func New(endpointURL string) *Adapter {
	return &Adapter{
		EndpointURL: endpointURL,
		Client:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Submit serializes the record and posts it. With no endpoint
// configured it short-circuits to success after logging (demo mode).
// The form-encoded fallback is only tried on transport failure; a
// response that says success=false is final either way.
func (a *Adapter) Submit(ctx context.Context, rec models.RegistrationRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	if strings.TrimSpace(a.EndpointURL) == "" {
		log.Printf("submit: no intake endpoint configured, demo mode (%d byte payload)", len(payload))
		return nil
	}

	resp, err := a.postJSON(ctx, payload)
	if err != nil {
		log.Printf("submit: json post failed, falling back to form post: %v", err)
		resp, err = a.postForm(ctx, payload)
		if err != nil {
			return fmt.Errorf("fallback form post: %w", err)
		}
	}

	if !resp.Success {
		return fmt.Errorf("intake rejected submission: %s", resp.Message)
	}
	return nil
}

func (a *Adapter) postJSON(ctx context.Context, payload []byte) (models.IntakeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.EndpointURL, bytes.NewReader(payload))
	if err != nil {
		return models.IntakeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	return a.send(req)
}

func (a *Adapter) postForm(ctx context.Context, payload []byte) (models.IntakeResponse, error) {
	form := url.Values{"data": {string(payload)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.EndpointURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return models.IntakeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.send(req)
}

func (a *Adapter) send(req *http.Request) (models.IntakeResponse, error) {
	resp, err := a.Client.Do(req)
	if err != nil {
		return models.IntakeResponse{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return models.IntakeResponse{}, fmt.Errorf("read response: %w", err)
	}
	var out models.IntakeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return models.IntakeResponse{}, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	return out, nil
}
