package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	GarminProviderName = "garmin"
	GarminBaseURL      = "https://connectapi.garmin.com"
)

// ErrReauthRequired means the stored Garmin token can no longer be used and
// the user has to link the device again.
var ErrReauthRequired = errors.New("garmin token expired, re-authentication required")

// GarminProvider reads the wellness daily summary. Tokens come from an
// external OAuth 1.0a exchange and are never refreshed here.
type GarminProvider struct {
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

func NewGarminProvider(baseURL string) *GarminProvider {
	if baseURL == "" {
		baseURL = GarminBaseURL
	}
	return &GarminProvider{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

func (*GarminProvider) Name() string     { return GarminProviderName }
func (*GarminProvider) NeedsToken() bool { return true }

type garminDailySummary struct {
	Steps      json.RawMessage `json:"steps"`
	TotalSteps json.RawMessage `json:"totalSteps"`
}

func (g *GarminProvider) DailySteps(ctx context.Context, tok Token, date string) (int, Token, error) {
	if tok.AccessToken == "" {
		return 0, tok, ErrTokenMissing
	}
	if !tok.ExpiresAt.IsZero() && !g.now().Before(tok.ExpiresAt) {
		return 0, tok, ErrReauthRequired
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, g.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "Bearer",
	}))

	u := g.baseURL + "/wellness-service/wellness/dailySummary?" + url.Values{"date": {date}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, tok, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return 0, tok, fmt.Errorf("garmin request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return 0, tok, ErrReauthRequired
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, tok, fmt.Errorf("garmin returned status %d: %s", resp.StatusCode, string(body))
	}

	var summary garminDailySummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return 0, tok, fmt.Errorf("failed to decode garmin response: %w", err)
	}
	raw := summary.Steps
	if len(raw) == 0 || string(raw) == "null" {
		raw = summary.TotalSteps
	}
	steps, err := parseSteps(raw)
	if err != nil {
		return 0, tok, err
	}
	return steps, tok, nil
}
