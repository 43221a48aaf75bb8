package v1beta1

import "k8s.io/utils/ptr"

const (
	// ProtocolOpenIDConnect is the protocol of every client and mapper created by the provisioner
	ProtocolOpenIDConnect = "openid-connect"

	// AudienceMapperType adds a client to the audience of issued tokens
	AudienceMapperType = "oidc-audience-mapper"
)

// ProtocolMapper defines a protocol mapper attached to a client
type ProtocolMapper struct {
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// +kubebuilder:validation:Required
	Protocol string `json:"protocol"`

	// MapperType is the Keycloak protocolMapper provider id, e.g. oidc-audience-mapper
	// +kubebuilder:validation:Required
	MapperType string `json:"mapperType"`

	// +optional
	ConsentRequired bool `json:"consentRequired,omitempty"`

	// +optional
	AddToIDToken bool `json:"addToIdToken,omitempty"`

	// AddToAccessToken defaults to true
	// +optional
	AddToAccessToken *bool `json:"addToAccessToken,omitempty"`

	// IncludedAudience defaults to the owning client's name
	// +optional
	IncludedAudience *string `json:"includedAudience,omitempty"`
}

// NewProtocolMapper returns a mapper with default token placement.
func NewProtocolMapper(name, protocol, mapperType string) ProtocolMapper {
	return ProtocolMapper{Name: name, Protocol: protocol, MapperType: mapperType}
}

// NewAudienceMapper returns an OpenID Connect audience mapper.
func NewAudienceMapper(name string) ProtocolMapper {
	return NewProtocolMapper(name, ProtocolOpenIDConnect, AudienceMapperType)
}

// WithConsentRequired returns a copy with the consent flag set.
func (m ProtocolMapper) WithConsentRequired(required bool) ProtocolMapper {
	out := m.DeepCopy()
	out.ConsentRequired = required
	return out
}

// WithTokens returns a copy that places the claim in the given tokens.
func (m ProtocolMapper) WithTokens(idToken, accessToken bool) ProtocolMapper {
	out := m.DeepCopy()
	out.AddToIDToken = idToken
	out.AddToAccessToken = ptr.To(accessToken)
	return out
}

// WithIncludedAudience returns a copy with an explicit audience.
func (m ProtocolMapper) WithIncludedAudience(audience string) ProtocolMapper {
	out := m.DeepCopy()
	out.IncludedAudience = ptr.To(audience)
	return out
}

// AccessTokenClaim reports whether the claim is added to access tokens.
func (m ProtocolMapper) AccessTokenClaim() bool {
	return ptr.Deref(m.AddToAccessToken, true)
}

// Audience resolves the included audience for a mapper owned by clientName.
func (m ProtocolMapper) Audience(clientName string) string {
	return ptr.Deref(m.IncludedAudience, clientName)
}

// DeepCopy returns a copy that shares no pointers with m.
func (m ProtocolMapper) DeepCopy() ProtocolMapper {
	out := m
	if m.AddToAccessToken != nil {
		out.AddToAccessToken = ptr.To(*m.AddToAccessToken)
	}
	if m.IncludedAudience != nil {
		out.IncludedAudience = ptr.To(*m.IncludedAudience)
	}
	return out
}
