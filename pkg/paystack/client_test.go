package paystack

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "sk_test_secret"), srv
}

func TestVerifyTransactionSuccess(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/verify/VELT-1-000001", r.URL.Path)
		require.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"id":1,"status":"success","reference":"VELT-1-000001","amount":8000,"currency":"GHS"}}`))
	})

	txn, err := client.VerifyTransaction(context.Background(), "VELT-1-000001")
	require.NoError(t, err)
	require.True(t, txn.Succeeded())
	require.Equal(t, int64(8000), txn.Amount)
	require.Equal(t, "GHS", txn.Currency)
	require.NotEmpty(t, txn.Raw)
}

func TestVerifyTransactionFailedChargeIsNotSucceeded(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":true,"message":"ok","data":{"status":"failed","reference":"r","amount":8000}}`))
	})

	txn, err := client.VerifyTransaction(context.Background(), "r")
	require.NoError(t, err)
	require.False(t, txn.Succeeded())
}

func TestVerifyTransactionNotFound(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	_, err := client.VerifyTransaction(context.Background(), "missing")
	require.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestVerifyTransactionAPIError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})

	_, err := client.VerifyTransaction(context.Background(), "r")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestVerifyTransactionEnvelopeFalseIsError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":false,"message":"verification pending"}`))
	})

	_, err := client.VerifyTransaction(context.Background(), "r")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Body, "pending")
}

func TestInitializeTransaction(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
	})

	auth, err := client.InitializeTransaction(context.Background(), InitializeRequest{
		Email:    "pub@example.com",
		Amount:   8000,
		Currency: "GHS",
	})
	require.NoError(t, err)
	require.Equal(t, "ref-1", auth.Reference)
	require.Contains(t, auth.AuthorizationURL, "checkout.paystack.com")
}

func TestInitializeTransactionValidation(t *testing.T) {
	client := NewClient("", "sk_test_secret")
	_, err := client.InitializeTransaction(context.Background(), InitializeRequest{Amount: 100})
	require.Error(t, err)
	_, err = client.InitializeTransaction(context.Background(), InitializeRequest{Email: "a@b.c"})
	require.Error(t, err)
}
