package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursusku_backend/internals/helpers/apperror"
)

func fakeGoogle(t *testing.T, tokenStatus, userInfoStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		if tokenStatus != http.StatusOK || r.PostForm.Get("code") != "good-code" {
			if tokenStatus == http.StatusOK {
				tokenStatus = http.StatusBadRequest
			}
			w.WriteHeader(tokenStatus)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"at-123","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-123" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(userInfoStatus)
		_, _ = w.Write([]byte(`{"sub":"1089","email":"dewi@gmail.com","email_verified":true,"name":"Dewi","picture":"https://img/p.png"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newGoogle(srv *httptest.Server) *GoogleProvider {
	return NewGoogleProvider(GoogleOptions{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/auth/oauth/google/callback",
		Timeout:      2 * time.Second,
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
	})
}

func TestGoogleProvider_FetchProfile(t *testing.T) {
	g := newGoogle(fakeGoogle(t, http.StatusOK, http.StatusOK))
	assert.True(t, g.Configured())

	p, err := g.FetchProfile(context.Background(), "good-code")
	require.NoError(t, err)
	assert.Equal(t, "1089", p.ProviderUserID)
	assert.Equal(t, "dewi@gmail.com", p.Email)
	assert.True(t, p.EmailVerified)
	assert.Equal(t, "https://img/p.png", p.AvatarURL)
}

func TestGoogleProvider_Errors(t *testing.T) {
	ctx := context.Background()

	g := newGoogle(fakeGoogle(t, http.StatusOK, http.StatusOK))
	_, err := g.FetchProfile(ctx, "bad-code")
	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUpstream, ae.Kind)
	assert.False(t, ae.Retryable)

	_, err = g.FetchProfile(ctx, "")
	assert.True(t, apperror.IsKind(err, apperror.KindValidation))

	g = newGoogle(fakeGoogle(t, http.StatusServiceUnavailable, http.StatusOK))
	_, err = g.FetchProfile(ctx, "good-code")
	ae, ok = apperror.As(err)
	require.True(t, ok)
	assert.True(t, ae.Retryable)

	g = newGoogle(fakeGoogle(t, http.StatusOK, http.StatusBadGateway))
	_, err = g.FetchProfile(ctx, "good-code")
	ae, ok = apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindUpstream, ae.Kind)
	assert.True(t, ae.Retryable)
}

func TestGoogleProvider_AuthCodeURL(t *testing.T) {
	g := NewGoogleProvider(GoogleOptions{ClientID: "cid", ClientSecret: "s", RedirectURL: "http://localhost/cb"})
	raw := g.AuthCodeURL("st4te")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "accounts.google.com", u.Host)
	q := u.Query()
	assert.Equal(t, "st4te", q.Get("state"))
	assert.Equal(t, "cid", q.Get("client_id"))
	assert.Contains(t, q.Get("scope"), "email")
}
