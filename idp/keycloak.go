// idp/keycloak.go
package idp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	wderrors "github.com/smplabs/warden/errors"
	logger "github.com/smplabs/warden/logging"
	"github.com/smplabs/warden/model"
)

// Token validation strategies.
const (
	StrategyUserinfo      = "userinfo"
	StrategyIntrospection = "introspection"
	StrategyJWTDecode     = "jwt_decode"
)

// Config holds the Keycloak connection settings.
type Config struct {
	URL                string
	Realm              string
	ClientID           string
	ClientSecret       string
	AdminClientID      string
	AdminClientSecret  string
	Timeout            time.Duration
	ValidationStrategy string
}

// ConfigFromViper reads the Keycloak section of the process configuration.
func ConfigFromViper() Config {
	return Config{
		URL:                viper.GetString("keycloak.url"),
		Realm:              viper.GetString("keycloak.realm"),
		ClientID:           viper.GetString("keycloak.clientId"),
		ClientSecret:       viper.GetString("keycloak.clientSecret"),
		AdminClientID:      viper.GetString("keycloak.adminClientId"),
		AdminClientSecret:  viper.GetString("keycloak.adminClientSecret"),
		Timeout:            viper.GetDuration("keycloak.timeout"),
		ValidationStrategy: viper.GetString("keycloak.validationStrategy"),
	}
}

// KeycloakClient talks to the provider's OpenID Connect and admin REST
// endpoints. Safe for concurrent use.
type KeycloakClient struct {
	cfg        Config
	attrConfig model.AttributeConfig
	httpClient *http.Client
	adminToken *AdminTokenCache
}

var _ Client = (*KeycloakClient)(nil)

func NewKeycloakClient(cfg Config, attrConfig model.AttributeConfig) *KeycloakClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.ValidationStrategy == "" {
		cfg.ValidationStrategy = StrategyUserinfo
	}
	c := &KeycloakClient{
		cfg:        cfg,
		attrConfig: attrConfig,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	c.adminToken = NewAdminTokenCache(c.fetchAdminToken)
	return c
}

func (c *KeycloakClient) realmURL(parts ...string) string {
	return c.cfg.URL + "/realms/" + c.cfg.Realm + strings.Join(parts, "")
}

func (c *KeycloakClient) adminURL(parts ...string) string {
	return c.cfg.URL + "/admin/realms/" + c.cfg.Realm + strings.Join(parts, "")
}

// ValidateToken resolves the configured strategy. Provider rejections
// surface as ValidationError; transport failures as
// ErrProviderUnavailable. Either way no partial identity escapes.
func (c *KeycloakClient) ValidateToken(ctx context.Context, token string) (*model.Identity, error) {
	switch c.cfg.ValidationStrategy {
	case StrategyIntrospection:
		return c.validateViaIntrospection(ctx, token)
	case StrategyJWTDecode:
		return c.validateViaDecode(token)
	default:
		return c.validateViaUserinfo(ctx, token)
	}
}

func (c *KeycloakClient) validateViaUserinfo(ctx context.Context, token string) (*model.Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.realmURL("/protocol/openid-connect/userinfo"), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, &wderrors.ValidationError{Upstream: strings.TrimSpace(string(body))}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo returned status %d", wderrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var claims map[string]any
	if err := json.Unmarshal(body, &claims); err != nil {
		return nil, fmt.Errorf("failed to decode userinfo response: %w", err)
	}

	return MapClaimsToIdentity(claims, c.attrConfig), nil
}

func (c *KeycloakClient) validateViaIntrospection(ctx context.Context, token string) (*model.Identity, error) {
	form := url.Values{}
	form.Set("token", token)
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)

	claims, err := c.postFormJSON(ctx, c.realmURL("/protocol/openid-connect/token/introspect"), form)
	if err != nil {
		return nil, err
	}

	if active, _ := claims["active"].(bool); !active {
		return nil, &wderrors.ValidationError{Upstream: "token is not active"}
	}

	return MapClaimsToIdentity(claims, c.attrConfig), nil
}

// validateViaDecode extracts claims locally without a provider round
// trip. Signature verification is delegated to the provider's gateway;
// only the expiry is enforced here.
func (c *KeycloakClient) validateViaDecode(token string) (*model.Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, &wderrors.ValidationError{Upstream: err.Error()}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, &wderrors.ValidationError{Upstream: "token has no expiry claim"}
	}
	if time.Now().After(exp.Time) {
		return nil, &wderrors.ValidationError{Upstream: "token is expired"}
	}

	return MapClaimsToIdentity(map[string]any(claims), c.attrConfig), nil
}

// GetUserInfo fetches a user's admin representation and role mappings,
// merged into a normalized identity.
func (c *KeycloakClient) GetUserInfo(ctx context.Context, userID string) (*model.Identity, error) {
	var record model.UserRecord
	if err := c.adminGetJSON(ctx, c.adminURL("/users/", userID), &record); err != nil {
		return nil, err
	}

	roles, err := c.GetRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	raw := map[string]any{
		"sub":                record.ID,
		"email":              record.Email,
		"given_name":         record.FirstName,
		"family_name":        record.LastName,
		"preferred_username": record.Username,
	}
	for name, values := range record.Attributes {
		switch len(values) {
		case 0:
		case 1:
			raw[name] = values[0]
		default:
			anyValues := make([]any, len(values))
			for i, v := range values {
				anyValues[i] = v
			}
			raw[name] = anyValues
		}
	}

	identity := MapClaimsToIdentity(raw, c.attrConfig)
	identity.Roles = roles
	if record.Enabled != nil && !*record.Enabled {
		identity.State = "DISABLED"
	}
	return identity, nil
}

// GetRoles returns the user's realm-level role mapping names.
func (c *KeycloakClient) GetRoles(ctx context.Context, userID string) ([]string, error) {
	var mappings []struct {
		Name string `json:"name"`
	}
	if err := c.adminGetJSON(ctx, c.adminURL("/users/", userID, "/role-mappings/realm"), &mappings); err != nil {
		return nil, err
	}

	roles := make([]string, 0, len(mappings))
	for _, m := range mappings {
		roles = append(roles, m.Name)
	}
	return roles, nil
}

func (c *KeycloakClient) AdminToken(ctx context.Context) (string, error) {
	return c.adminToken.Token(ctx)
}

// InvalidateAdminToken drops the cached service credential.
func (c *KeycloakClient) InvalidateAdminToken() {
	c.adminToken.Invalidate()
}

func (c *KeycloakClient) fetchAdminToken(ctx context.Context) (string, time.Duration, error) {
	clientID := c.cfg.AdminClientID
	clientSecret := c.cfg.AdminClientSecret
	if clientID == "" {
		clientID = c.cfg.ClientID
		clientSecret = c.cfg.ClientSecret
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	body, err := c.postFormJSON(ctx, c.realmURL("/protocol/openid-connect/token"), form)
	if err != nil {
		return "", 0, err
	}

	token, _ := body["access_token"].(string)
	if token == "" {
		return "", 0, fmt.Errorf("%w: token endpoint returned no access_token", wderrors.ErrProviderUnavailable)
	}
	expiresIn := time.Hour
	if seconds, ok := body["expires_in"].(float64); ok && seconds > 0 {
		expiresIn = time.Duration(seconds) * time.Second
	}

	logger.Debug("Fetched admin token", zap.Duration("expiresIn", expiresIn))
	return token, expiresIn, nil
}

// Login authenticates a user with the password grant.
func (c *KeycloakClient) Login(ctx context.Context, username, password string) (*model.AuthResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", "openid email profile")

	return c.tokenGrant(ctx, form)
}

// RefreshToken exchanges a refresh token for a fresh token pair.
func (c *KeycloakClient) RefreshToken(ctx context.Context, refreshToken string) (*model.AuthResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("refresh_token", refreshToken)

	return c.tokenGrant(ctx, form)
}

// Logout revokes a token at the provider.
func (c *KeycloakClient) Logout(ctx context.Context, token string) error {
	form := url.Values{}
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	form.Set("token", token)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.realmURL("/protocol/openid-connect/logout"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("logout failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *KeycloakClient) tokenGrant(ctx context.Context, form url.Values) (*model.AuthResponse, error) {
	body, err := c.postFormJSON(ctx, c.realmURL("/protocol/openid-connect/token"), form)
	if err != nil {
		return nil, err
	}

	accessToken, _ := body["access_token"].(string)
	if accessToken == "" {
		detail, _ := body["error_description"].(string)
		return nil, &wderrors.ValidationError{Upstream: detail}
	}

	resp := &model.AuthResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   3600,
	}
	if refresh, ok := body["refresh_token"].(string); ok {
		resp.RefreshToken = refresh
	}
	if tokenType, ok := body["token_type"].(string); ok && tokenType != "" {
		resp.TokenType = tokenType
	}
	if expires, ok := body["expires_in"].(float64); ok && expires > 0 {
		resp.ExpiresIn = int(expires)
	}
	return resp, nil
}

// postFormJSON posts a urlencoded form and decodes the JSON response.
// Grant rejections (4xx with a JSON body) are returned as claims so the
// caller can surface the provider's message.
func (c *KeycloakClient) postFormJSON(ctx context.Context, endpoint string, form url.Values) (map[string]any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: provider returned status %d", wderrors.ErrProviderUnavailable, resp.StatusCode)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode provider response: %w", err)
	}
	return decoded, nil
}

// adminGetJSON performs an authenticated admin API GET.
func (c *KeycloakClient) adminGetJSON(ctx context.Context, endpoint string, out any) error {
	token, err := c.AdminToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return wderrors.ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: admin API returned status %d", wderrors.ErrProviderUnavailable, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// adminDo performs an authenticated admin API call carrying an optional
// JSON payload and returns the raw response.
func (c *KeycloakClient) adminDo(ctx context.Context, method, endpoint string, payload any) (*http.Response, error) {
	token, err := c.AdminToken(ctx)
	if err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = strings.NewReader(string(data))
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wderrors.ErrProviderUnavailable, err)
	}
	return resp, nil
}
