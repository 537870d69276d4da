// Package render turns resolved content into bitmaps. Template rendering and
// HTML-to-bitmap conversion are external HTTP services; this package owns the
// orchestration and the fallback behavior around them.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TemplateError is the structured error the template service returns for a
// malformed template or missing context.
type TemplateError struct {
	Message string `json:"error"`
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error: %s", e.Message)
}

// ErrRenderFailed wraps failures of the HTML renderer service. Callers fall
// back to a static raster; the failure is never propagated to the device.
var ErrRenderFailed = errors.New("html renderer failed")

// TemplateRenderer resolves a template plus a data context into markup.
type TemplateRenderer interface {
	Render(ctx context.Context, template string, data map[string]any) (string, error)
}

// HTMLRenderer converts markup into a bitmap at the requested viewport.
type HTMLRenderer interface {
	Render(ctx context.Context, markup string, width, height int) ([]byte, error)
}

const renderTimeout = 30 * time.Second

// httpTemplateRenderer talks to the external template service.
type httpTemplateRenderer struct {
	baseURL string
	client  *http.Client
}

func NewTemplateRenderer(baseURL string) TemplateRenderer {
	return &httpTemplateRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: renderTimeout},
	}
}

func (r *httpTemplateRenderer) Render(ctx context.Context, template string, data map[string]any) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"template": template,
		"context":  data,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("template service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var terr TemplateError
		if err := json.Unmarshal(body, &terr); err != nil || terr.Message == "" {
			terr.Message = string(body)
		}
		return "", &terr
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("template service returned %d", resp.StatusCode)
	}

	var out struct {
		Markup string `json:"markup"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	return out.Markup, nil
}

// httpHTMLRenderer talks to the headless browser service.
type httpHTMLRenderer struct {
	baseURL string
	client  *http.Client
}

func NewHTMLRenderer(baseURL string) HTMLRenderer {
	return &httpHTMLRenderer{
		baseURL: baseURL,
		client:  &http.Client{Timeout: renderTimeout},
	}
}

func (r *httpHTMLRenderer) Render(ctx context.Context, markup string, width, height int) ([]byte, error) {
	payload, err := json.Marshal(map[string]any{
		"html":   markup,
		"width":  width,
		"height": height,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/screenshot", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRenderFailed, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
