// Package keycloak provides a client for checking a provisioned Keycloak
// instance over HTTP: admin lookups, OpenID Connect discovery and token grants.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-resty/resty/v2"
)

// ErrNotFound is returned by lookups that found nothing
var ErrNotFound = errors.New("not found")

// Client provides methods to interact with the Keycloak HTTP endpoints
type Client struct {
	baseURL  string
	realm    string
	username string
	password string

	httpClient  *resty.Client
	token       *TokenResponse
	tokenExpiry time.Time
	tokenMutex  sync.RWMutex
	log         logr.Logger
}

// Config holds Keycloak client configuration
type Config struct {
	BaseURL  string
	Realm    string // admin realm, defaults to "master"
	Username string
	Password string
	Timeout  time.Duration // defaults to 30s
}

// TokenResponse represents an OAuth2 token response
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	IDToken          string `json:"id_token,omitempty"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope,omitempty"`
}

// NewClient creates a new Keycloak client
func NewClient(cfg Config, log logr.Logger) *Client {
	if cfg.Realm == "" {
		cfg.Realm = "master"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(0)

	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		realm:      cfg.Realm,
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		log:        log.WithName("keycloak-client"),
	}
}

// BaseURL returns the instance URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// getToken gets a valid admin token, refreshing if necessary
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.tokenMutex.RLock()
	if c.token != nil && c.isTokenValid() {
		defer c.tokenMutex.RUnlock()
		return c.token.AccessToken, nil
	}
	c.tokenMutex.RUnlock()

	c.tokenMutex.Lock()
	defer c.tokenMutex.Unlock()

	// Double-check after acquiring write lock
	if c.token != nil && c.isTokenValid() {
		return c.token.AccessToken, nil
	}

	token, err := c.PasswordToken(ctx, c.realm, "admin-cli", "", c.username, c.password)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with Keycloak: %w", err)
	}

	c.token = token
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)

	return token.AccessToken, nil
}

// isTokenValid checks if the current token is still valid
func (c *Client) isTokenValid() bool {
	if c.token == nil {
		return false
	}
	// Add a buffer of 30 seconds before expiration
	return time.Now().Add(30 * time.Second).Before(c.tokenExpiry)
}

// Ping checks if the admin credentials are accepted
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.getToken(ctx)
	return err
}

// request creates an authenticated request
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return nil, err
	}

	return c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(token), nil
}

// Get retrieves an admin resource
func (c *Client) Get(ctx context.Context, path string, params map[string]string, result interface{}) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	if params != nil {
		req.SetQueryParams(params)
	}

	resp, err := req.SetResult(result).Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s", resp.Status(), string(resp.Body()))
	}

	return nil
}

func adminPath(realmName string, segments ...string) string {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return "/admin/realms/" + url.PathEscape(realmName) + strings.TrimSuffix("/"+strings.Join(escaped, "/"), "/")
}

// ============================================================================
// Realm Operations
// ============================================================================

// RealmRepresentation represents a Keycloak realm
type RealmRepresentation struct {
	ID      *string `json:"id,omitempty"`
	Realm   *string `json:"realm,omitempty"`
	Enabled *bool   `json:"enabled,omitempty"`
}

// GetRealm gets a realm by name
func (c *Client) GetRealm(ctx context.Context, realmName string) (*RealmRepresentation, error) {
	var realm RealmRepresentation
	if err := c.Get(ctx, adminPath(realmName), nil, &realm); err != nil {
		return nil, err
	}
	return &realm, nil
}

// ============================================================================
// Client Operations
// ============================================================================

// ClientRepresentation represents a Keycloak client
type ClientRepresentation struct {
	ID                        *string  `json:"id,omitempty"`
	ClientID                  *string  `json:"clientId,omitempty"`
	Enabled                   *bool    `json:"enabled,omitempty"`
	Protocol                  *string  `json:"protocol,omitempty"`
	PublicClient              *bool    `json:"publicClient,omitempty"`
	ClientAuthenticatorType   *string  `json:"clientAuthenticatorType,omitempty"`
	ServiceAccountsEnabled    *bool    `json:"serviceAccountsEnabled,omitempty"`
	DirectAccessGrantsEnabled *bool    `json:"directAccessGrantsEnabled,omitempty"`
	RedirectURIs              []string `json:"redirectUris,omitempty"`
}

// ProtocolMapperRepresentation represents a protocol mapper of a client
type ProtocolMapperRepresentation struct {
	ID              *string           `json:"id,omitempty"`
	Name            *string           `json:"name,omitempty"`
	Protocol        *string           `json:"protocol,omitempty"`
	ProtocolMapper  *string           `json:"protocolMapper,omitempty"`
	ConsentRequired *bool             `json:"consentRequired,omitempty"`
	Config          map[string]string `json:"config,omitempty"`
}

// GetClients gets all clients in a realm with optional filtering
func (c *Client) GetClients(ctx context.Context, realmName string, params map[string]string) ([]ClientRepresentation, error) {
	var clients []ClientRepresentation
	if err := c.Get(ctx, adminPath(realmName, "clients"), params, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// GetClientByClientID finds a client by its clientId field
func (c *Client) GetClientByClientID(ctx context.Context, realmName, clientID string) (*ClientRepresentation, error) {
	clients, err := c.GetClients(ctx, realmName, map[string]string{"clientId": clientID})
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ClientID != nil && *clients[i].ClientID == clientID {
			return &clients[i], nil
		}
	}
	return nil, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
}

// GetProtocolMappers lists the protocol mappers of a client by internal ID
func (c *Client) GetProtocolMappers(ctx context.Context, realmName, id string) ([]ProtocolMapperRepresentation, error) {
	var mappers []ProtocolMapperRepresentation
	if err := c.Get(ctx, adminPath(realmName, "clients", id, "protocol-mappers", "models"), nil, &mappers); err != nil {
		return nil, err
	}
	return mappers, nil
}

// GetServiceAccountUser gets the service account user of a client by internal ID
func (c *Client) GetServiceAccountUser(ctx context.Context, realmName, id string) (*UserRepresentation, error) {
	var user UserRepresentation
	if err := c.Get(ctx, adminPath(realmName, "clients", id, "service-account-user"), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ============================================================================
// User Operations
// ============================================================================

// UserRepresentation represents a Keycloak user
type UserRepresentation struct {
	ID            *string `json:"id,omitempty"`
	Username      *string `json:"username,omitempty"`
	Email         *string `json:"email,omitempty"`
	EmailVerified *bool   `json:"emailVerified,omitempty"`
	Enabled       *bool   `json:"enabled,omitempty"`
	FirstName     *string `json:"firstName,omitempty"`
	LastName      *string `json:"lastName,omitempty"`
}

// GetUserByUsername finds a user by username
func (c *Client) GetUserByUsername(ctx context.Context, realmName, username string) (*UserRepresentation, error) {
	var users []UserRepresentation
	params := map[string]string{"username": username, "exact": "true"}
	if err := c.Get(ctx, adminPath(realmName, "users"), params, &users); err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return &users[0], nil
}
