package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonReply(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestNewClient_ValidatesLocally(t *testing.T) {
	for _, raw := range []string{"", "not a url", "ftp://x.example", "https://"} {
		_, err := NewClient(raw, "key")
		assert.ErrorIs(t, err, ErrInvalidURL, raw)
	}

	_, err := NewClient("https://xyz.supabase.co", "  ")
	assert.ErrorIs(t, err, ErrMissingKey)

	c, err := NewClient("https://xyz.supabase.co/", "key")
	require.NoError(t, err)
	assert.Equal(t, "https://xyz.supabase.co", c.BaseURL())
}

func TestSession_NoTokenReturnsErrNoSession(t *testing.T) {
	var gotKey, gotAuth, gotPath string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		jsonReply(w, http.StatusOK, `{"version":"v2","name":"GoTrue"}`)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, "anon-key")
	require.NoError(t, err)

	s, err := c.Session(context.Background())
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, "no active session", err.Error())
	assert.Equal(t, "/auth/v1/health", gotPath)
	assert.Equal(t, "anon-key", gotKey)
	assert.Equal(t, "Bearer anon-key", gotAuth)
}

func TestSession_WithTokenFetchesUser(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" || r.Header.Get("Authorization") != "Bearer user-jwt" {
			jsonReply(w, http.StatusUnauthorized, `{"msg":"bad token"}`)
			return
		}
		jsonReply(w, http.StatusOK, `{"id":"u1","email":"a@b.c","role":"authenticated"}`)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, "anon-key", WithAccessToken("user-jwt"))
	require.NoError(t, err)

	s, err := c.Session(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s.User)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "user-jwt", s.AccessToken)
}

func TestSession_APIErrorMessage(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"gateway message", http.StatusUnauthorized, `{"message":"Invalid API key"}`, "Invalid API key"},
		{"auth msg", http.StatusForbidden, `{"msg":"invalid JWT"}`, "invalid JWT"},
		{"oauth style", http.StatusBadRequest, `{"error":"invalid_grant","error_description":"expired"}`, "expired"},
		{"no body", http.StatusBadGateway, ``, "unexpected status 502 Bad Gateway"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				jsonReply(w, tc.status, tc.body)
			}))
			defer ts.Close()

			c, err := NewClient(ts.URL, "k")
			require.NoError(t, err)

			_, err = c.Session(context.Background())
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr), "got %v", err)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.want, err.Error())
		})
	}
}

func TestSession_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		jsonReply(w, http.StatusOK, `{}`)
	}))
	defer ts.Close()

	c, err := NewClient(ts.URL, "k", WithTimeout(50*time.Millisecond))
	require.NoError(t, err)

	_, err = c.Session(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSession)
}
