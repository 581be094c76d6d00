package twitter

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"delib-reply-bot/internal/domain"
	"delib-reply-bot/internal/observability"

	"github.com/google/uuid"
)

// AuthConfig holds the OAuth2 client settings for the token store
type AuthConfig struct {
	ClientID         string
	ClientSecret     string
	RedirectURI      string
	Scopes           string
	AuthorizationURL string
	TokenURL         string
	TokenFile        string
}

// Token is the persisted OAuth2 credential record. The whole record is
// rewritten on every grant, never merged.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	Scope        string `json:"scope,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	ExpiresAt    int64  `json:"expires_at"`
}

// TokenStore persists and refreshes the OAuth2 bearer credential
type TokenStore struct {
	cfg        AuthConfig
	httpClient *http.Client

	// Interactive authorization I/O, stdin/stdout in production
	in  io.Reader
	out io.Writer

	now func() time.Time
}

// NewTokenStore creates a token store for the given OAuth2 client
func NewTokenStore(cfg AuthConfig) *TokenStore {
	return &TokenStore{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		in:  os.Stdin,
		out: os.Stdout,
		now: time.Now,
	}
}

// Valid returns an access token that is good for at least 60 more seconds,
// refreshing or running the interactive authorization flow as needed
func (s *TokenStore) Valid(ctx context.Context) (string, error) {
	tok, err := s.load()
	if err != nil {
		return "", err
	}

	if tok == nil {
		observability.Info("no saved token, starting interactive authorization")
		return s.authorize(ctx)
	}

	if tok.ExpiresAt > s.now().Unix()+60 {
		return tok.AccessToken, nil
	}

	observability.Info("access token expired, refreshing")
	return s.refresh(ctx, tok.RefreshToken)
}

// authorize runs the PKCE authorization-code exchange: the operator opens the
// printed URL, approves, and pastes the redirect URL back
func (s *TokenStore) authorize(ctx context.Context) (string, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	challenge := generateCodeChallenge(verifier)

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", s.cfg.ClientID)
	params.Set("redirect_uri", s.cfg.RedirectURI)
	params.Set("scope", s.cfg.Scopes)
	params.Set("state", uuid.NewString())
	params.Set("code_challenge", challenge)
	params.Set("code_challenge_method", "S256")

	fmt.Fprintf(s.out, "Open this URL to authorize the bot:\n%s?%s\n\n", s.cfg.AuthorizationURL, params.Encode())
	fmt.Fprint(s.out, "Paste the URL you were redirected to: ")

	redirected, err := readLine(s.in)
	if err != nil {
		return "", fmt.Errorf("read redirect url: %w", err)
	}
	code, err := extractCode(redirected)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("code", code)
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", s.cfg.ClientID)
	form.Set("redirect_uri", s.cfg.RedirectURI)
	form.Set("code_verifier", verifier)

	tok, err := s.exchange(ctx, form)
	if err != nil {
		return "", err
	}

	if err := s.save(tok); err != nil {
		return "", err
	}
	observability.Info("access token saved", "expires_at", tok.ExpiresAt)
	return tok.AccessToken, nil
}

// refresh exchanges the refresh token for a new access token. When the
// response omits a refresh token, the previous one is kept.
func (s *TokenStore) refresh(ctx context.Context, refreshToken string) (string, error) {
	form := url.Values{}
	form.Set("refresh_token", refreshToken)
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.cfg.ClientID)

	tok, err := s.exchange(ctx, form)
	if err != nil {
		return "", err
	}

	if tok.RefreshToken == "" {
		tok.RefreshToken = refreshToken
	}

	if err := s.save(tok); err != nil {
		return "", err
	}
	observability.TokenRefreshesTotal.Inc()
	observability.Info("access token refreshed", "expires_at", tok.ExpiresAt)
	return tok.AccessToken, nil
}

// exchange posts a grant to the token endpoint with client basic auth
func (s *TokenStore) exchange(ctx context.Context, form url.Values) (*Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		observability.CollaboratorErrorsTotal.WithLabelValues("oauth").Inc()
		return nil, fmt.Errorf("token endpoint request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	var tok Token
	if err := json.Unmarshal(body, &tok); err != nil || tok.AccessToken == "" {
		observability.CollaboratorErrorsTotal.WithLabelValues("oauth").Inc()
		return nil, fmt.Errorf("%w: token endpoint returned %d: %s",
			domain.ErrAuthRequired, resp.StatusCode, observability.Preview(string(body), 200))
	}

	tok.ExpiresAt = s.now().Unix() + tok.ExpiresIn
	return &tok, nil
}

// load reads the saved token record, nil when no record exists
func (s *TokenStore) load() (*Token, error) {
	data, err := os.ReadFile(s.cfg.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &tok, nil
}

// save overwrites the token record. Write-then-rename so a crash mid-write
// cannot corrupt the previously valid record.
func (s *TokenStore) save(tok *Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	tmp := s.cfg.TokenFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	if err := os.Rename(tmp, s.cfg.TokenFile); err != nil {
		return fmt.Errorf("replace token file: %w", err)
	}
	return nil
}

func generateCodeVerifier() (string, error) {
	buf := make([]byte, 40)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func generateCodeChallenge(verifier string) string {
	hashed := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hashed[:])
}

func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

// extractCode pulls the authorization code out of the pasted redirect URL
func extractCode(redirected string) (string, error) {
	parsed, err := url.Parse(redirected)
	if err != nil {
		return "", fmt.Errorf("parse redirect url: %w", err)
	}
	code := parsed.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("%w: redirect url has no code parameter", domain.ErrAuthRequired)
	}
	return code, nil
}
