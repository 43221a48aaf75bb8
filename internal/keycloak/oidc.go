package keycloak

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/wait"
)

// ============================================================================
// OpenID Connect Operations
// ============================================================================

// Discovery is the subset of the OpenID Connect discovery document used here
type Discovery struct {
	Issuer                string   `json:"issuer"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	JWKSURI               string   `json:"jwks_uri"`
	GrantTypesSupported   []string `json:"grant_types_supported,omitempty"`
}

// TokenError is returned by the token endpoint for rejected grants
type TokenError struct {
	Status           int
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token request rejected (%d): %s: %s", e.Status, e.ErrorCode, e.ErrorDescription)
}

func (c *Client) realmURL(realmName string) string {
	return c.baseURL + "/realms/" + url.PathEscape(realmName)
}

// Discovery fetches the discovery document of a realm. It needs no credentials.
func (c *Client) Discovery(ctx context.Context, realmName string) (*Discovery, error) {
	var doc Discovery
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&doc).
		Get(c.realmURL(realmName) + "/.well-known/openid-configuration")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%s: %s", resp.Status(), string(resp.Body()))
	}
	return &doc, nil
}

// WaitForRealm polls the discovery document until the realm serves it.
func (c *Client) WaitForRealm(ctx context.Context, realmName string, interval, timeout time.Duration) error {
	return wait.PollUntilContextTimeout(ctx, interval, timeout, true, func(ctx context.Context) (bool, error) {
		if _, err := c.Discovery(ctx, realmName); err != nil {
			c.log.V(1).Info("realm not ready yet", "realm", realmName, "error", err.Error())
			return false, nil
		}
		return true, nil
	})
}

// ClientCredentialsToken requests a token for a confidential client.
func (c *Client) ClientCredentialsToken(ctx context.Context, realmName, clientID, clientSecret string, scopes ...string) (*TokenResponse, error) {
	form := map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     clientID,
		"client_secret": clientSecret,
	}
	if len(scopes) > 0 {
		form["scope"] = strings.Join(scopes, " ")
	}
	return c.tokenRequest(ctx, realmName, form)
}

// PasswordToken requests a token with the direct access grant. clientSecret
// may be empty for public clients.
func (c *Client) PasswordToken(ctx context.Context, realmName, clientID, clientSecret, username, password string, scopes ...string) (*TokenResponse, error) {
	form := map[string]string{
		"grant_type": "password",
		"client_id":  clientID,
		"username":   username,
		"password":   password,
	}
	if clientSecret != "" {
		form["client_secret"] = clientSecret
	}
	if len(scopes) > 0 {
		form["scope"] = strings.Join(scopes, " ")
	}
	return c.tokenRequest(ctx, realmName, form)
}

func (c *Client) tokenRequest(ctx context.Context, realmName string, form map[string]string) (*TokenResponse, error) {
	var token TokenResponse
	var tokenErr TokenError
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&token).
		SetError(&tokenErr).
		Post(c.realmURL(realmName) + "/protocol/openid-connect/token")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.IsError() {
		tokenErr.Status = resp.StatusCode()
		if tokenErr.ErrorCode == "" {
			tokenErr.ErrorDescription = string(resp.Body())
		}
		return nil, &tokenErr
	}
	return &token, nil
}
