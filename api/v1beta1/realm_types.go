package v1beta1

import (
	"fmt"
	"strings"
)

// Realm describes a provisioned realm as seen from the host running the tests
type Realm struct {
	Name string `json:"name"`

	// URL is the issuer of tokens minted by the realm
	URL string `json:"url"`

	// MetadataURL is the OpenID Connect discovery document of the realm
	MetadataURL string `json:"metadataUrl"`
}

// NewRealm derives the realm URLs from the instance base URL, e.g. http://localhost:32768.
func NewRealm(name, baseURL string) *Realm {
	url := fmt.Sprintf("%s/realms/%s", strings.TrimSuffix(baseURL, "/"), name)
	return &Realm{
		Name:        name,
		URL:         url,
		MetadataURL: url + "/.well-known/openid-configuration",
	}
}

// TokenURL is the realm's token endpoint.
func (r *Realm) TokenURL() string {
	return r.URL + "/protocol/openid-connect/token"
}

// JWKSURL is the realm's signing key set.
func (r *Realm) JWKSURL() string {
	return r.URL + "/protocol/openid-connect/certs"
}
