package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Environment hosts.
const (
	hostSandbox     = "https://sandbox.plaid.com"
	hostDevelopment = "https://development.plaid.com"
	hostProduction  = "https://production.plaid.com"
)

// Client is a minimal Plaid REST client covering the endpoints the
// aggregator consumes: link token creation, public token exchange, accounts
// and transactions.
type Client struct {
	clientID   string
	secret     string
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the given environment ("sandbox",
// "development" or "production"). Unknown environments fall back to
// sandbox.
func NewClient(clientID, secret, environment string) *Client {
	var host string
	switch environment {
	case "production":
		host = hostProduction
	case "development":
		host = hostDevelopment
	default:
		host = hostSandbox
	}
	return &Client{
		clientID:   clientID,
		secret:     secret,
		baseURL:    host,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithBaseURL overrides the API host. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// APIError is the Plaid error envelope.
type APIError struct {
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	StatusCode   int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid: %s/%s: %s", e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("plaid: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plaid: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			return fmt.Errorf("plaid: %s: unexpected status %d", path, resp.StatusCode)
		}
		return apiErr
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type auth struct {
	ClientID string `json:"client_id"`
	Secret   string `json:"secret"`
}

func (c *Client) auth() auth { return auth{ClientID: c.clientID, Secret: c.secret} }

// LinkTokenCreate creates a Link token for the frontend Link flow.
func (c *Client) LinkTokenCreate(ctx context.Context, clientName, userID string, countryCodes []string) (*LinkTokenResponse, error) {
	req := struct {
		auth
		ClientName   string            `json:"client_name"`
		Language     string            `json:"language"`
		CountryCodes []string          `json:"country_codes"`
		Products     []string          `json:"products"`
		User         map[string]string `json:"user"`
	}{
		auth:         c.auth(),
		ClientName:   clientName,
		Language:     "en",
		CountryCodes: countryCodes,
		Products:     []string{"transactions"},
		User:         map[string]string{"client_user_id": userID},
	}
	var out LinkTokenResponse
	if err := c.post(ctx, "/link/token/create", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExchangePublicToken exchanges a Link public token for an access token.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	req := struct {
		auth
		PublicToken string `json:"public_token"`
	}{auth: c.auth(), PublicToken: publicToken}
	var out ExchangeResponse
	if err := c.post(ctx, "/item/public_token/exchange", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Accounts fetches accounts for an item.
func (c *Client) Accounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	req := struct {
		auth
		AccessToken string `json:"access_token"`
	}{auth: c.auth(), AccessToken: accessToken}
	var out AccountsResponse
	if err := c.post(ctx, "/accounts/get", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Transactions fetches all transactions in [start, end], paging through
// offsets until total_transactions is reached.
func (c *Client) Transactions(ctx context.Context, accessToken string, start, end time.Time, accountIDs []string) ([]Transaction, error) {
	const pageSize = 500
	var all []Transaction
	for {
		req := struct {
			auth
			AccessToken string             `json:"access_token"`
			StartDate   string             `json:"start_date"`
			EndDate     string             `json:"end_date"`
			Options     transactionOptions `json:"options"`
		}{
			auth:        c.auth(),
			AccessToken: accessToken,
			StartDate:   start.Format("2006-01-02"),
			EndDate:     end.Format("2006-01-02"),
			Options: transactionOptions{
				Count:      pageSize,
				Offset:     len(all),
				AccountIDs: accountIDs,
			},
		}
		var out TransactionsResponse
		if err := c.post(ctx, "/transactions/get", req, &out); err != nil {
			return nil, err
		}
		all = append(all, out.Transactions...)
		if len(all) >= out.TotalTransactions || len(out.Transactions) == 0 {
			return all, nil
		}
	}
}

type transactionOptions struct {
	Count      int      `json:"count"`
	Offset     int      `json:"offset"`
	AccountIDs []string `json:"account_ids,omitempty"`
}
