package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	FitbitProviderName = "fitbit"
	fitbitAuthURL      = "https://www.fitbit.com/oauth2/authorize"
	fitbitTokenURL     = "https://api.fitbit.com/oauth2/token"
	fitbitBaseURL      = "https://api.fitbit.com"
)

// ErrTokenMissing means the link has no usable access token.
var ErrTokenMissing = errors.New("device link has no access token")

// FitbitProvider reads the daily activity summary from the Fitbit Web API.
// Expired access tokens are refreshed through the oauth2 token source.
type FitbitProvider struct {
	oauth      *oauth2.Config
	baseURL    string
	httpClient *http.Client
}

func NewFitbitProvider(clientID, clientSecret string) *FitbitProvider {
	return &FitbitProvider{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{"activity"},
			Endpoint: oauth2.Endpoint{
				AuthURL:   fitbitAuthURL,
				TokenURL:  fitbitTokenURL,
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		baseURL:    fitbitBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

func (*FitbitProvider) Name() string     { return FitbitProviderName }
func (*FitbitProvider) NeedsToken() bool { return true }

type fitbitDailySummary struct {
	Summary struct {
		Steps json.RawMessage `json:"steps"`
	} `json:"summary"`
}

func (f *FitbitProvider) DailySteps(ctx context.Context, tok Token, date string) (int, Token, error) {
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return 0, tok, ErrTokenMissing
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, f.httpClient)
	src := f.oauth.TokenSource(ctx, &oauth2.Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		Expiry:       tok.ExpiresAt,
		TokenType:    "Bearer",
	})
	client := oauth2.NewClient(ctx, src)

	url := fmt.Sprintf("%s/1/user/-/activities/date/%s.json", f.baseURL, date)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, tok, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, tok, fmt.Errorf("fitbit request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, tok, fmt.Errorf("fitbit returned status %d: %s", resp.StatusCode, string(body))
	}

	var summary fitbitDailySummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return 0, tok, fmt.Errorf("failed to decode fitbit response: %w", err)
	}
	steps, err := parseSteps(summary.Summary.Steps)
	if err != nil {
		return 0, tok, err
	}

	fresh, err := src.Token()
	if err == nil && fresh.AccessToken != tok.AccessToken {
		tok = Token{AccessToken: fresh.AccessToken, RefreshToken: fresh.RefreshToken, ExpiresAt: fresh.Expiry}
	}
	return steps, tok, nil
}

// parseSteps accepts the count as a number or a numeric string.
func parseSteps(raw json.RawMessage) (int, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("unexpected steps value %s", string(raw))
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("unexpected steps value %q", s)
	}
	return n, nil
}
