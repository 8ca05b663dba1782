package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/peterbiondo/solar-calculator-proxy/internal/domain"
)

// Hosted CRM endpoints. Overridable only through ClientConfig, for tests.
const (
	defaultBaseURL  = "https://api.hubcrm.io/v2"
	defaultTokenURL = "https://api.hubcrm.io/oauth/token"
)

// expiryMargin is subtracted from the upstream-reported token lifetime so a
// token is never used right at its expiry edge.
const expiryMargin = 300 * time.Second

// ClientConfig holds CRM client construction values.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	SiteID       string
	BaseURL      string
	TokenURL     string
	Timeout      time.Duration
	Now          func() time.Time
}

// Client talks to the CRM REST API on behalf of one site. Token acquisition
// reads through the configured TokenStore.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	siteID       string
	tokens       TokenStore
	now          func() time.Time
	logger       *zap.Logger
}

// NewClient builds the CRM client.
func NewClient(cfg ClientConfig, tokens TokenStore, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = defaultTokenURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		tokenURL:     tokenURL,
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		siteID:       cfg.SiteID,
		tokens:       tokens,
		now:          now,
		logger:       logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// AccessToken returns a bearer token for the configured client, reusing the
// cached one until its expiry.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	if token, ok := c.tokens.Get(ctx); ok {
		return token.Value, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("authentication failed: token endpoint returned %d", resp.StatusCode)
	}

	var parsed tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("authentication failed: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", fmt.Errorf("authentication failed: empty access token")
	}

	lifetime := time.Duration(parsed.ExpiresIn) * time.Second
	token := domain.AccessToken{
		Value:     parsed.AccessToken,
		ExpiresAt: c.now().Add(lifetime - expiryMargin),
	}
	c.tokens.Set(ctx, token)
	c.logger.Debug("issued crm access token", zap.Time("expires_at", token.ExpiresAt))

	return token.Value, nil
}

type contactRecord struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type contactSearchResponse struct {
	Contacts []contactRecord `json:"contacts"`
}

type contactEnvelope struct {
	Contact contactRecord `json:"contact"`
}

// FindContactByEmail searches the CRM for a contact and selects the exact
// case-insensitive email match locally. The upstream search is fuzzy, so its
// results cannot be trusted as-is. A missing match returns (nil, nil).
func (c *Client) FindContactByEmail(ctx context.Context, email string) (*domain.Contact, error) {
	endpoint := fmt.Sprintf("%s/sites/%s/contacts?search=%s", c.baseURL, url.PathEscape(c.siteID), url.QueryEscape(email))

	var result contactSearchResponse
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, fmt.Errorf("contact search: %w", err)
	}

	for _, record := range result.Contacts {
		if strings.EqualFold(record.Email, email) {
			return &domain.Contact{ID: record.ID, Email: record.Email, Name: record.Name}, nil
		}
	}
	return nil, nil
}

// CreateContact creates a new contact record keyed by email.
func (c *Client) CreateContact(ctx context.Context, email string) (*domain.Contact, error) {
	endpoint := fmt.Sprintf("%s/sites/%s/contacts", c.baseURL, url.PathEscape(c.siteID))
	payload := map[string]string{"email": email}

	var result contactEnvelope
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &result); err != nil {
		return nil, fmt.Errorf("contact create: %w", err)
	}
	if result.Contact.ID == "" {
		return nil, fmt.Errorf("contact create: response missing contact id")
	}
	return &domain.Contact{ID: result.Contact.ID, Email: result.Contact.Email, Name: result.Contact.Name}, nil
}

// EnsureContact resolves a contact by email, creating it when absent.
func (c *Client) EnsureContact(ctx context.Context, email string) (*domain.Contact, error) {
	contact, err := c.FindContactByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if contact != nil {
		return contact, nil
	}
	c.logger.Info("creating crm contact", zap.String("email", email))
	return c.CreateContact(ctx, email)
}

// AttachTag adds the tag relationship to the contact. Re-attaching an already
// present tag is assumed idempotent on the upstream side.
func (c *Client) AttachTag(ctx context.Context, contactID, tagID string) error {
	endpoint := fmt.Sprintf("%s/sites/%s/contacts/%s/tags", c.baseURL, url.PathEscape(c.siteID), url.PathEscape(contactID))
	payload := map[string]string{"tag_id": tagID}

	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, nil); err != nil {
		return fmt.Errorf("tag attach: %w", err)
	}
	return nil
}

// doJSON issues an authenticated JSON request and decodes the response into
// out when provided. Non-2xx statuses are errors.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body, out any) error {
	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		c.logger.Warn("crm request failed",
			zap.String("method", method),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", raw))
		return fmt.Errorf("crm returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
