package plaid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnvironmentHosts(t *testing.T) {
	t.Parallel()

	require.Equal(t, hostSandbox, NewClient("cid", "sec", "sandbox").baseURL)
	require.Equal(t, hostDevelopment, NewClient("cid", "sec", "development").baseURL)
	require.Equal(t, hostProduction, NewClient("cid", "sec", "production").baseURL)
	require.Equal(t, hostSandbox, NewClient("cid", "sec", "").baseURL)
}

func TestExchangePublicToken(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/item/public_token/exchange", r.URL.Path)
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "cid", body["client_id"])
		require.Equal(t, "sec", body["secret"])
		require.Equal(t, "public-sandbox-123", body["public_token"])
		_ = json.NewEncoder(w).Encode(ExchangeResponse{AccessToken: "access-1", ItemID: "item-1"})
	}))
	defer srv.Close()

	c := NewClient("cid", "sec", "sandbox").WithBaseURL(srv.URL)
	resp, err := c.ExchangePublicToken(context.Background(), "public-sandbox-123")
	require.NoError(t, err)
	require.Equal(t, "access-1", resp.AccessToken)
	require.Equal(t, "item-1", resp.ItemID)
}

func TestAccountsErrorEnvelope(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error_type":    "INVALID_INPUT",
			"error_code":    "INVALID_ACCESS_TOKEN",
			"error_message": "could not find matching access token",
		})
	}))
	defer srv.Close()

	c := NewClient("cid", "sec", "sandbox").WithBaseURL(srv.URL)
	_, err := c.Accounts(context.Background(), "bogus")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "INVALID_ACCESS_TOKEN", apiErr.ErrorCode)
	require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}

func TestTransactionsPaging(t *testing.T) {
	t.Parallel()

	page1 := make([]Transaction, 500)
	for i := range page1 {
		page1[i] = Transaction{TransactionID: "a", Amount: 1, Date: "2026-01-02"}
	}
	page2 := []Transaction{{TransactionID: "b", Amount: 2, Date: "2026-01-03"}}

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var body struct {
			Options transactionOptions `json:"options"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		resp := TransactionsResponse{TotalTransactions: 501}
		if body.Options.Offset == 0 {
			resp.Transactions = page1
		} else {
			require.Equal(t, 500, body.Options.Offset)
			resp.Transactions = page2
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("cid", "sec", "sandbox").WithBaseURL(srv.URL)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	txs, err := c.Transactions(context.Background(), "access-1", start, end, nil)
	require.NoError(t, err)
	require.Len(t, txs, 501)
	require.Equal(t, 2, calls)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2026-08-25")
	require.NoError(t, err)
	require.Equal(t, 2026, d.Year())
	require.Equal(t, time.August, d.Month())

	_, err = ParseDate("25/08/2026")
	require.Error(t, err)
}
