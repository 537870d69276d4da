package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/db"
	"github.com/inkwell-labs/inkwell/internal/model"
)

const defaultFetchTimeout = 30 * time.Second

// Service refreshes pull-strategy plugin data. Fetch failures degrade the
// payload to an error marker instead of failing the display request; the
// timestamp is stamped either way so a broken source is not re-fetched on
// every poll.
type Service struct {
	store  db.Store
	client *http.Client
	now    func() time.Time
}

func NewService(store db.Store) *Service {
	return &Service{
		store:  store,
		client: &http.Client{Timeout: defaultFetchTimeout},
		now:    time.Now,
	}
}

// EnsureFresh refetches the plugin's data when its strategy demands it and
// returns the up-to-date plugin. Static and push plugins are returned as-is.
func (s *Service) EnsureFresh(ctx context.Context, p model.Plugin) (model.Plugin, error) {
	if p.Strategy != model.StrategyPull || !Stale(&p, s.now()) {
		return p, nil
	}

	data, err := s.fetch(ctx, &p)
	if err != nil {
		log.Warn().Err(err).Int("plugin_id", p.ID).Str("plugin", p.Name).Msg("pull fetch failed, storing error marker")
		data = model.ConfigMap{"error": err.Error()}
	}

	at := s.now()
	if err := s.store.SetPluginData(p.ID, data, at); err != nil {
		return p, err
	}
	p.Data = data
	p.DataUpdatedAt = &at
	return p, nil
}

// fetch resolves every polling URL (newline separated) and merges the
// responses. A single URL's response is kept as-is; multiple responses are
// merged under their positional index, with top-level arrays wrapped under
// "data" so the merged shape stays uniform.
func (s *Service) fetch(ctx context.Context, p *model.Plugin) (model.ConfigMap, error) {
	urls := splitLocations(p.PollingURL)
	if len(urls) == 0 {
		return nil, fmt.Errorf("plugin %d has no polling url", p.ID)
	}

	results := make([]any, 0, len(urls))
	for _, raw := range urls {
		body, err := s.fetchOne(ctx, p, Substitute(raw, p.Config))
		if err != nil {
			return nil, err
		}
		var parsed any
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("unparseable response from %s: %w", raw, err)
		}
		results = append(results, parsed)
	}

	if len(results) == 1 {
		return wrap(results[0]), nil
	}
	merged := make(model.ConfigMap, len(results))
	for i, r := range results {
		merged[fmt.Sprintf("IDX_%d", i)] = wrap(r)
	}
	return merged, nil
}

func (s *Service) fetchOne(ctx context.Context, p *model.Plugin, url string) ([]byte, error) {
	method := http.MethodGet
	var reqBody io.Reader
	if p.PollingBody != nil && *p.PollingBody != "" {
		method = http.MethodPost
		reqBody = strings.NewReader(Substitute(*p.PollingBody, p.Config))
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range parseHeaders(p.PollingHeaders, p.Config) {
		req.Header.Set(key, value)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 status code: %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// wrap keeps fetched payloads object-shaped: arrays go under "data".
func wrap(v any) model.ConfigMap {
	switch t := v.(type) {
	case map[string]any:
		return model.ConfigMap(t)
	default:
		return model.ConfigMap{"data": v}
	}
}

func splitLocations(raw *string) []string {
	if raw == nil {
		return nil
	}
	var out []string
	for _, line := range strings.Split(*raw, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// parseHeaders reads "Name: value" lines with variable substitution applied
// to the values.
func parseHeaders(raw *string, config model.ConfigMap) map[string]string {
	out := make(map[string]string)
	if raw == nil {
		return out
	}
	for _, line := range strings.Split(*raw, "\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[name] = Substitute(strings.TrimSpace(value), config)
	}
	return out
}

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

// Substitute replaces {{ key }} placeholders with the plugin's config
// values. Unknown keys are replaced with the empty string. This is plain
// placeholder splicing; the template language proper is the external
// renderer's concern.
func Substitute(s string, config model.ConfigMap) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		key := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := config[key]; ok {
			return fmt.Sprint(v)
		}
		return ""
	})
}
