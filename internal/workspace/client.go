// Package workspace talks to the externally hosted workspace product's
// user API. The external lifecycle is opaque; this client only creates,
// deactivates and reactivates accounts, defensively (existence check before
// create, tolerate missing account on deactivate).
package workspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrAccessRequired is returned when the caller lacks access; raised by
	// the account service before the external API is ever called.
	ErrAccessRequired = errors.New("workspace access required")

	// ErrAlreadyExists marks a duplicate-identity rejection. Callers treat
	// it as a success path.
	ErrAlreadyExists = errors.New("workspace account already exists")

	// ErrUpstream wraps network failures and 5xx responses from the
	// workspace API. No retries happen here; that is the caller's call.
	ErrUpstream = errors.New("workspace api unavailable")
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateResult reports the outcome of an account creation attempt.
type CreateResult struct {
	ExternalID    string
	AlreadyExists bool
}

type externalUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Active   bool   `json:"active"`
}

// CreateAccount provisions a workspace account for the email. If one
// already exists it reports AlreadyExists instead of erroring, so a
// re-delivered request is harmless.
func (c *Client) CreateAccount(ctx context.Context, email, password string) (CreateResult, error) {
	// Best-effort existence check first; the create call's duplicate
	// detection below is the fallback when this listing fails.
	if existing, found, err := c.lookupByEmail(ctx, email); err == nil && found {
		return CreateResult{ExternalID: existing.ID, AlreadyExists: true}, nil
	}

	body, _ := json.Marshal(map[string]string{
		"username": email,
		"password": password,
	})
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/users/", bytes.NewReader(body))
	if err != nil {
		return CreateResult{}, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		var created externalUser
		if err := json.Unmarshal(respBody, &created); err != nil {
			return CreateResult{}, fmt.Errorf("decode create response: %w", err)
		}
		return CreateResult{ExternalID: created.ID}, nil

	case resp.StatusCode == http.StatusBadRequest && looksLikeDuplicate(respBody):
		// The external API rejects duplicates with a generic 400; the
		// message text is the only signal.
		return CreateResult{AlreadyExists: true}, nil

	case resp.StatusCode >= 500:
		return CreateResult{}, fmt.Errorf("create account: status %d: %w", resp.StatusCode, ErrUpstream)

	default:
		return CreateResult{}, fmt.Errorf("create account: unexpected status %d", resp.StatusCode)
	}
}

// DeactivateAccount flips the external account inactive. The account is
// never deleted upstream so workspace data survives for reactivation. A
// missing account is a no-op.
func (c *Client) DeactivateAccount(ctx context.Context, email string) error {
	return c.setActive(ctx, email, false)
}

// ReactivateAccount restores a previously deactivated account.
func (c *Client) ReactivateAccount(ctx context.Context, email string) error {
	return c.setActive(ctx, email, true)
}

func (c *Client) setActive(ctx context.Context, email string, active bool) error {
	user, found, err := c.lookupByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	body, _ := json.Marshal(map[string]bool{"active": active})
	resp, err := c.do(ctx, http.MethodPatch, "/api/v1/users/"+url.PathEscape(user.ID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// Deleted out from under us between lookup and patch.
		return nil
	case resp.StatusCode >= 500:
		return fmt.Errorf("set active=%t: status %d: %w", active, resp.StatusCode, ErrUpstream)
	default:
		return fmt.Errorf("set active=%t: unexpected status %d", active, resp.StatusCode)
	}
}

func (c *Client) lookupByEmail(ctx context.Context, email string) (externalUser, bool, error) {
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/users/?username="+url.QueryEscape(email), nil)
	if err != nil {
		return externalUser{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode >= 500 {
			return externalUser{}, false, fmt.Errorf("lookup: status %d: %w", resp.StatusCode, ErrUpstream)
		}
		return externalUser{}, false, fmt.Errorf("lookup: unexpected status %d", resp.StatusCode)
	}

	var users []externalUser
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return externalUser{}, false, fmt.Errorf("decode lookup response: %w", err)
	}
	for _, u := range users {
		if strings.EqualFold(u.Username, email) {
			return u, true, nil
		}
	}
	return externalUser{}, false, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrUpstream, err)
	}
	return resp, nil
}

func looksLikeDuplicate(body []byte) bool {
	msg := strings.ToLower(string(body))
	return strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "unavailable") ||
		strings.Contains(msg, "taken")
}
