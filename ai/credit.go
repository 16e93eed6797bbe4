package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"Painter/core"
	"Painter/lib/sl"
)

// CreditChecker reads the account balance of the configured provider.
type CreditChecker struct {
	creds      core.Credentials
	httpClient *http.Client
	log        *slog.Logger
}

func NewCreditChecker(creds core.Credentials, log *slog.Logger) *CreditChecker {
	return &CreditChecker{
		creds:      creds,
		httpClient: &http.Client{},
		log:        log.With(sl.Module("credit")),
	}
}

// CreditURL maps an API base such as https://host/v1 to https://host/user/credit.
func CreditURL(baseURL string) string {
	base := strings.TrimRight(baseURL, "/")
	base = strings.TrimSuffix(base, "/v1")
	return base + "/user/credit"
}

// Check returns the decoded JSON body of the credit endpoint. The key is sent
// as-is in the Authorization header, without a Bearer prefix.
func (c *CreditChecker) Check(ctx context.Context) (any, error) {
	if missing := c.creds.Missing(); len(missing) > 0 {
		return nil, &core.ConfigurationError{Missing: missing}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, CreditURL(c.creds.BaseURL), nil)
	if err != nil {
		return nil, fmt.Errorf("making request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.creds.APIKey)

	c.log.Debug("checking credit", slog.String("url", req.URL.String()), sl.Secret("key", c.creds.APIKey))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting response: %w", err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("closing response body", sl.Err(err))
		}
	}(resp.Body)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("credit API status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var credit any
	if err := json.Unmarshal(body, &credit); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return credit, nil
}
