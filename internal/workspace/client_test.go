package workspace

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccountReturnsExistingOnLookupHit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": "ext-1", "username": "user@example.com", "active": true},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.CreateAccount(context.Background(), "user@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, res.AlreadyExists)
	assert.Equal(t, "ext-1", res.ExternalID)
}

func TestCreateAccountCreatesWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{})
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]any{"id": "ext-2", "username": "new@example.com"})
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.CreateAccount(context.Background(), "new@example.com", "pw")
	require.NoError(t, err)
	assert.False(t, res.AlreadyExists)
	assert.Equal(t, "ext-2", res.ExternalID)
}

func TestCreateAccountDetectsDuplicateFromGeneric400(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			// Existence check fails; the 400-message fallback has to catch it.
			w.WriteHeader(http.StatusInternalServerError)
		case http.MethodPost:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"detail":"The username you have chosen is unavailable"}`))
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	res, err := c.CreateAccount(context.Background(), "dupe@example.com", "pw")
	require.NoError(t, err)
	assert.True(t, res.AlreadyExists)
}

func TestDeactivateMissingAccountIsNoOp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	assert.NoError(t, c.DeactivateAccount(context.Background(), "gone@example.com"))
}

func TestDeactivatePatchesActiveFalse(t *testing.T) {
	var patched string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": "ext-9", "username": "user@example.com", "active": true},
			})
		case http.MethodPatch:
			patched = r.URL.Path
			var body map[string]bool
			json.NewDecoder(r.Body).Decode(&body)
			require.False(t, body["active"])
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	require.NoError(t, c.DeactivateAccount(context.Background(), "user@example.com"))
	assert.Equal(t, "/api/v1/users/ext-9", patched)
}

func TestUpstreamErrorsAreTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "key")
	_, err := c.CreateAccount(context.Background(), "user@example.com", "pw")
	assert.True(t, errors.Is(err, ErrUpstream))
}
