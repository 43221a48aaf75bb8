package keycloak

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"k8s.io/utils/ptr"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
)

// ============================================================================
// Verification
// ============================================================================

// VerificationError lists the differences between a configuration and the live realm
type VerificationError struct {
	Realm       string
	Differences []string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("realm %q does not match its configuration: %s", e.Realm, strings.Join(e.Differences, "; "))
}

// VerifyRealm reads the realm back through the admin API and compares it with cfg.
func (c *Client) VerifyRealm(ctx context.Context, cfg keycloakv1beta1.RealmConfiguration) error {
	var diffs []string
	add := func(format string, args ...interface{}) {
		diffs = append(diffs, fmt.Sprintf(format, args...))
	}

	realm, err := c.GetRealm(ctx, cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to get realm %s: %w", cfg.Name, err)
	}
	if !ptr.Deref(realm.Enabled, false) {
		add("realm is not enabled")
	}

	for _, want := range cfg.Clients {
		got, err := c.GetClientByClientID(ctx, cfg.Name, want.Name)
		if err != nil {
			add("client %q: %v", want.Name, err)
			continue
		}
		for _, uri := range want.UniqueRedirectURIs() {
			if !slices.Contains(got.RedirectURIs, uri) {
				add("client %q: missing redirect URI %q", want.Name, uri)
			}
		}
		if want.Secret != nil && ptr.Deref(got.PublicClient, true) {
			add("client %q: expected a confidential client", want.Name)
		}
		if want.ServiceAccountsEnabled != nil && ptr.Deref(got.ServiceAccountsEnabled, false) != *want.ServiceAccountsEnabled {
			add("client %q: serviceAccountsEnabled is %t", want.Name, ptr.Deref(got.ServiceAccountsEnabled, false))
		}

		if len(want.Mappers) > 0 {
			mappers, err := c.GetProtocolMappers(ctx, cfg.Name, ptr.Deref(got.ID, ""))
			if err != nil {
				add("client %q: failed to list mappers: %v", want.Name, err)
			} else {
				for _, m := range want.Mappers {
					if !hasMapper(mappers, m.Name) {
						add("client %q: missing mapper %q", want.Name, m.Name)
					}
				}
			}
		}

		if want.PatchesServiceAccount() {
			sa, err := c.GetServiceAccountUser(ctx, cfg.Name, ptr.Deref(got.ID, ""))
			if err != nil {
				add("client %q: failed to get service account user: %v", want.Name, err)
			} else {
				diffs = append(diffs, profileDiffs("service account of client "+want.Name, want.ServiceAccountUser.Profile, sa)...)
			}
		}
	}

	for _, want := range cfg.Users {
		got, err := c.GetUserByUsername(ctx, cfg.Name, want.Username)
		if err != nil {
			add("user %q: %v", want.Username, err)
			continue
		}
		if !ptr.Deref(got.Enabled, false) {
			add("user %q: not enabled", want.Username)
		}
		diffs = append(diffs, profileDiffs("user "+want.Username, want.Profile, got)...)
	}

	if len(diffs) > 0 {
		return &VerificationError{Realm: cfg.Name, Differences: diffs}
	}
	c.log.V(1).Info("realm matches configuration", "realm", cfg.Name)
	return nil
}

func profileDiffs(subject string, want keycloakv1beta1.Profile, got *UserRepresentation) []string {
	var diffs []string
	check := func(field string, want, got *string) {
		if want != nil && ptr.Deref(got, "") != *want {
			diffs = append(diffs, fmt.Sprintf("%s: %s is %q, want %q", subject, field, ptr.Deref(got, ""), *want))
		}
	}
	// Keycloak lowercases email addresses
	if want.Email != nil {
		lower := strings.ToLower(*want.Email)
		check("email", &lower, got.Email)
	}
	check("firstName", want.FirstName, got.FirstName)
	check("lastName", want.LastName, got.LastName)
	if want.EmailVerified != nil && ptr.Deref(got.EmailVerified, false) != *want.EmailVerified {
		diffs = append(diffs, fmt.Sprintf("%s: emailVerified is %t", subject, ptr.Deref(got.EmailVerified, false)))
	}
	return diffs
}

func hasMapper(mappers []ProtocolMapperRepresentation, name string) bool {
	for _, m := range mappers {
		if ptr.Deref(m.Name, "") == name {
			return true
		}
	}
	return false
}
