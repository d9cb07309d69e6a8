package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	googleAuthIDTokenVerifier "github.com/futurenda/google-auth-id-token-verifier"
	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"kursusku_backend/internals/helpers/apperror"
)

const ProviderGoogle = "google"

// Profile: hasil normalisasi profil dari identity provider.
type Profile struct {
	Provider       string
	ProviderUserID string
	Email          string
	EmailVerified  bool
	Name           string
	AvatarURL      string
}

// Provider: tukar code → token → profil. Satu implementasi per identity provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	FetchProfile(ctx context.Context, code string) (*Profile, error)
}

// IDTokenVerifier dipakai login Google dari client (One Tap / mobile) yang sudah memegang ID token.
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Profile, error)
}

/* ===================== GOOGLE (authorization code) ===================== */

type GoogleProvider struct {
	cfg         *oauth2.Config
	userInfoURL string
	timeout     time.Duration
	client      *resty.Client
}

type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Timeout      time.Duration
	// kosong → endpoint resmi Google (diganti di test)
	TokenURL    string
	UserInfoURL string
}

func NewGoogleProvider(opt GoogleOptions) *GoogleProvider {
	if opt.Timeout <= 0 {
		opt.Timeout = 15 * time.Second
	}
	ep := endpoints.Google
	if opt.TokenURL != "" {
		ep.TokenURL = opt.TokenURL
		ep.AuthStyle = oauth2.AuthStyleInParams
	}
	if opt.UserInfoURL == "" {
		opt.UserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
	}
	return &GoogleProvider{
		cfg: &oauth2.Config{
			ClientID:     opt.ClientID,
			ClientSecret: opt.ClientSecret,
			RedirectURL:  opt.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     ep,
		},
		userInfoURL: opt.UserInfoURL,
		timeout:     opt.Timeout,
		client:      resty.New().SetTimeout(opt.Timeout),
	}
}

func (g *GoogleProvider) Name() string { return ProviderGoogle }

func (g *GoogleProvider) Configured() bool {
	return g.cfg.ClientID != "" && g.cfg.ClientSecret != "" && g.cfg.RedirectURL != ""
}

func (g *GoogleProvider) AuthCodeURL(state string) string {
	return g.cfg.AuthCodeURL(state, oauth2.AccessTypeOnline, oauth2.SetAuthURLParam("prompt", "select_account"))
}

type googleUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (g *GoogleProvider) FetchProfile(ctx context.Context, code string) (*Profile, error) {
	if strings.TrimSpace(code) == "" {
		return nil, apperror.ValidationMsg("code", "authorization code wajib diisi")
	}
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: g.timeout})

	tok, err := g.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, upstreamError("gagal menukar authorization code", err)
	}

	var info googleUserInfo
	resp, err := g.client.R().
		SetContext(ctx).
		SetAuthToken(tok.AccessToken).
		SetResult(&info).
		Get(g.userInfoURL)
	if err != nil {
		return nil, upstreamError("gagal mengambil profil Google", err)
	}
	if resp.IsError() {
		return nil, apperror.Upstream("gagal mengambil profil Google",
			resp.StatusCode() >= http.StatusInternalServerError,
			fmt.Errorf("userinfo status %d", resp.StatusCode()))
	}
	if info.Sub == "" {
		return nil, apperror.Upstream("profil Google tidak lengkap", false, nil)
	}
	return &Profile{
		Provider:       ProviderGoogle,
		ProviderUserID: info.Sub,
		Email:          info.Email,
		EmailVerified:  info.EmailVerified,
		Name:           info.Name,
		AvatarURL:      info.Picture,
	}, nil
}

// upstreamError: timeout / 5xx → retryable, 4xx dari provider (code invalid, dsb) → final.
func upstreamError(msg string, err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.Response != nil {
		return apperror.Upstream(msg, re.Response.StatusCode >= http.StatusInternalServerError, err)
	}
	// timeout & gangguan jaringan
	return apperror.Upstream(msg, true, err)
}

/* ===================== GOOGLE (ID token) ===================== */

type GoogleIDTokenVerifier struct {
	ClientID string
}

func (v GoogleIDTokenVerifier) Verify(_ context.Context, idToken string) (*Profile, error) {
	if v.ClientID == "" {
		return nil, apperror.Internal("GOOGLE_CLIENT_ID belum diset", nil)
	}
	verifier := googleAuthIDTokenVerifier.Verifier{}
	if err := verifier.VerifyIDToken(idToken, []string{v.ClientID}); err != nil {
		return nil, apperror.Unauthorized("Invalid Google ID Token")
	}
	claimSet, err := googleAuthIDTokenVerifier.Decode(idToken)
	if err != nil {
		return nil, apperror.Unauthorized("Failed to decode ID Token")
	}
	return &Profile{
		Provider:       ProviderGoogle,
		ProviderUserID: claimSet.Sub,
		Email:          claimSet.Email,
		EmailVerified:  true,
		Name:           claimSet.Name,
	}, nil
}
