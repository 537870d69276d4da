// Package raster converts rendered bitmaps into device-ready files and owns
// the geometry-scoped raster cache.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inkwell-labs/inkwell/internal/geometry"
)

// EncodeOptions describe the target the codec must produce: final pixel
// dimensions, rotation, palette and container format.
type EncodeOptions struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Rotation    int     `json:"rotation"`
	BitDepth    int     `json:"bit_depth"`
	Colors      int     `json:"colors"`
	ScaleFactor float64 `json:"scale_factor"`
	OffsetX     int     `json:"offset_x"`
	OffsetY     int     `json:"offset_y"`
	Format      string  `json:"format"`
}

// OptionsFor maps a resolved screen onto codec options.
func OptionsFor(s geometry.Screen) EncodeOptions {
	return EncodeOptions{
		Width:       s.Width,
		Height:      s.Height,
		Rotation:    s.Rotation,
		BitDepth:    s.BitDepth,
		Colors:      s.Colors,
		ScaleFactor: s.ScaleFactor,
		OffsetX:     s.OffsetX,
		OffsetY:     s.OffsetY,
		Format:      s.Format,
	}
}

// Codec quantizes, scales and repackages a rendered bitmap for a device
// panel. The implementation is an external HTTP service.
type Codec interface {
	Encode(ctx context.Context, image []byte, opts EncodeOptions) ([]byte, error)
}

const codecTimeout = 30 * time.Second

type httpCodec struct {
	baseURL string
	client  *http.Client
}

func NewCodec(baseURL string) Codec {
	return &httpCodec{
		baseURL: baseURL,
		client:  &http.Client{Timeout: codecTimeout},
	}
}

func (c *httpCodec) Encode(ctx context.Context, image []byte, opts EncodeOptions) ([]byte, error) {
	payload, err := json.Marshal(struct {
		EncodeOptions
		Image string `json:"image"`
	}{
		EncodeOptions: opts,
		Image:         base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/convert", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image codec unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image codec returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
