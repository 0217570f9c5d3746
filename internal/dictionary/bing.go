// Package dictionary provides the remote lookup collaborators that turn a
// phrase into its phonetic transcription.
package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Bing queries the Bing dictionary words API.
type Bing struct {
	baseURL    string
	appID      string
	market     string
	httpClient *http.Client
}

func NewBing(baseURL, appID, market string, timeout time.Duration) *Bing {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Bing{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		market:  market,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type bingResponse struct {
	Value []struct {
		Pronunciation *string `json:"pronunciation"`
	} `json:"value"`
}

// Lookup returns the pronunciation of phrase with parentheses removed. A
// response without a pronunciation yields "" and no error.
func (b *Bing) Lookup(ctx context.Context, phrase string) (string, error) {
	q := url.Values{}
	q.Set("q", phrase)
	q.Set("appid", b.appID)
	q.Set("mkt", b.market)
	u := b.baseURL + "/api/v7/dictionarywords/search?" + q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("bing api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var apiResp bingResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w (raw: %s)", err, truncate(string(respBody), 200))
	}
	if len(apiResp.Value) == 0 || apiResp.Value[0].Pronunciation == nil {
		return "", nil
	}
	return stripParens(*apiResp.Value[0].Pronunciation), nil
}

// Close releases idle connections.
func (b *Bing) Close() {
	b.httpClient.CloseIdleConnections()
}

func stripParens(s string) string {
	return strings.NewReplacer("(", "", ")", "").Replace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// StatusError is a non-200 reply from the dictionary service.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("dictionary status %d: %s", e.StatusCode, truncate(e.Message, 200))
}
