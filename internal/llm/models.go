package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"go.uber.org/zap"
)

// defaultModelCacheTTL bounds how often the provider's model list is
// refetched when the configuration does not set a TTL.
const defaultModelCacheTTL = 30 * time.Second

// modelsResponse matches the OpenAI /models list payload.
type modelsResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Models returns the model identifiers available at the provider.
//
// langchaingo does not expose a listing call, so this hits GET
// {baseURL}/models directly. Results are cached for a short TTL so that
// model-switch validation does not hammer the provider.
func (o *OpenAI) Models(ctx context.Context) ([]string, error) {
	o.mu.Lock()
	if len(o.cachedList) > 0 && time.Now().Before(o.cacheExpiry) {
		cached := append([]string(nil), o.cachedList...)
		o.mu.Unlock()
		return cached, nil
	}
	o.mu.Unlock()

	models, err := o.fetchModels(ctx)
	if err != nil {
		return nil, err
	}

	ttl := o.config.ModelCacheTTL
	if ttl <= 0 {
		ttl = defaultModelCacheTTL
	}

	o.mu.Lock()
	o.cachedList = models
	o.cacheExpiry = time.Now().Add(ttl)
	o.mu.Unlock()

	o.logger.Debug("refreshed model list",
		zap.Int("count", len(models)),
		zap.Duration("ttl", ttl))

	return append([]string(nil), models...), nil
}

func (o *OpenAI) fetchModels(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/models", o.config.BaseURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building model list request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, classifyErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: model list returned %d", ErrUpstreamRejected, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: model list returned %d", ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding model list: %v", ErrUpstreamUnavailable, err)
	}

	models := make([]string, 0, len(payload.Data))
	for _, m := range payload.Data {
		if m.ID != "" {
			models = append(models, m.ID)
		}
	}
	sort.Strings(models)
	return models, nil
}
