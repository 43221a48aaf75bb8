package v1beta1

import "k8s.io/utils/ptr"

// Client defines an OpenID Connect client inside a realm
type Client struct {
	// Name is used as the clientId
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// RedirectURIs has set semantics; duplicates are dropped keeping first occurrence order
	// +optional
	RedirectURIs []string `json:"redirectUris,omitempty"`

	// Secret makes the client confidential with secret based authentication
	// +optional
	Secret *string `json:"secret,omitempty"`

	// ServiceAccountsEnabled enables the client credentials grant
	// +optional
	ServiceAccountsEnabled *bool `json:"serviceAccountsEnabled,omitempty"`

	// ServiceAccountUser holds profile attributes applied to the service account user
	// +optional
	ServiceAccountUser *ServiceAccount `json:"serviceAccountUser,omitempty"`

	// Mappers are created in order after the client
	// +optional
	Mappers []ProtocolMapper `json:"mappers,omitempty"`
}

// NewClient returns a public client without redirect URIs.
func NewClient(name string) Client {
	return Client{Name: name}
}

// WithRedirectURIs returns a copy with the given redirect URIs added.
func (c Client) WithRedirectURIs(uris ...string) Client {
	out := c.DeepCopy()
	out.RedirectURIs = append(out.RedirectURIs, uris...)
	out.RedirectURIs = out.UniqueRedirectURIs()
	return out
}

// WithSecret returns a confidential copy of the client.
func (c Client) WithSecret(secret string) Client {
	out := c.DeepCopy()
	out.Secret = ptr.To(secret)
	return out
}

// WithServiceAccountsEnabled returns a copy with the service account flag set.
func (c Client) WithServiceAccountsEnabled(enabled bool) Client {
	out := c.DeepCopy()
	out.ServiceAccountsEnabled = ptr.To(enabled)
	return out
}

// WithServiceAccountUser returns a copy carrying the service account profile.
func (c Client) WithServiceAccountUser(account ServiceAccount) Client {
	out := c.DeepCopy()
	out.ServiceAccountUser = &account
	return out
}

// WithMappers returns a copy with the given mappers appended.
func (c Client) WithMappers(mappers ...ProtocolMapper) Client {
	out := c.DeepCopy()
	out.Mappers = append(out.Mappers, mappers...)
	return out
}

// UniqueRedirectURIs returns the redirect URIs without duplicates.
func (c Client) UniqueRedirectURIs() []string {
	if c.RedirectURIs == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(c.RedirectURIs))
	out := make([]string, 0, len(c.RedirectURIs))
	for _, uri := range c.RedirectURIs {
		if _, ok := seen[uri]; ok {
			continue
		}
		seen[uri] = struct{}{}
		out = append(out, uri)
	}
	return out
}

// PatchesServiceAccount reports whether the service account user gets updated
// after the client is created.
func (c Client) PatchesServiceAccount() bool {
	return ptr.Deref(c.ServiceAccountsEnabled, false) && c.ServiceAccountUser != nil
}

// DeepCopy returns a copy that shares no slices or pointers with c.
func (c Client) DeepCopy() Client {
	out := Client{Name: c.Name}
	if c.RedirectURIs != nil {
		out.RedirectURIs = append([]string(nil), c.RedirectURIs...)
	}
	if c.Secret != nil {
		out.Secret = ptr.To(*c.Secret)
	}
	if c.ServiceAccountsEnabled != nil {
		out.ServiceAccountsEnabled = ptr.To(*c.ServiceAccountsEnabled)
	}
	if c.ServiceAccountUser != nil {
		sa := c.ServiceAccountUser.DeepCopy()
		out.ServiceAccountUser = &sa
	}
	if c.Mappers != nil {
		out.Mappers = make([]ProtocolMapper, len(c.Mappers))
		for i := range c.Mappers {
			out.Mappers[i] = c.Mappers[i].DeepCopy()
		}
	}
	return out
}
