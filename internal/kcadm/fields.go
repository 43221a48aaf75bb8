package kcadm

import (
	"strconv"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
)

// field emits "-s key=value" tokens for an optional attribute when present.
// Tables are iterated in order so token sequences are reproducible.
type field[T any] struct {
	name    string
	present func(T) bool
	value   func(T) string
}

func appendFields[T any](tokens []string, fields []field[T], v T) []string {
	for _, f := range fields {
		if f.present(v) {
			tokens = append(tokens, set(f.name, f.value(v))...)
		}
	}
	return tokens
}

var clientFields = []field[keycloakv1beta1.Client]{
	{
		name:    "publicClient",
		present: func(c keycloakv1beta1.Client) bool { return c.Secret != nil },
		value:   func(keycloakv1beta1.Client) string { return "false" },
	},
	{
		name:    "clientAuthenticatorType",
		present: func(c keycloakv1beta1.Client) bool { return c.Secret != nil },
		value:   func(keycloakv1beta1.Client) string { return "client-secret" },
	},
	{
		name:    "secret",
		present: func(c keycloakv1beta1.Client) bool { return c.Secret != nil },
		value:   func(c keycloakv1beta1.Client) string { return *c.Secret },
	},
	{
		// bare JSON boolean; kcadm parses -s values as JSON when they are valid JSON
		name:    "serviceAccountsEnabled",
		present: func(c keycloakv1beta1.Client) bool { return c.ServiceAccountsEnabled != nil },
		value:   func(c keycloakv1beta1.Client) string { return strconv.FormatBool(*c.ServiceAccountsEnabled) },
	},
}

var profileFields = []field[keycloakv1beta1.Profile]{
	{
		name:    "email",
		present: func(p keycloakv1beta1.Profile) bool { return p.Email != nil },
		value:   func(p keycloakv1beta1.Profile) string { return *p.Email },
	},
	{
		name:    "emailVerified",
		present: func(p keycloakv1beta1.Profile) bool { return p.EmailVerified != nil },
		value:   func(p keycloakv1beta1.Profile) string { return strconv.FormatBool(*p.EmailVerified) },
	},
	{
		name:    "firstName",
		present: func(p keycloakv1beta1.Profile) bool { return p.FirstName != nil },
		value:   func(p keycloakv1beta1.Profile) string { return *p.FirstName },
	},
	{
		name:    "lastName",
		present: func(p keycloakv1beta1.Profile) bool { return p.LastName != nil },
		value:   func(p keycloakv1beta1.Profile) string { return *p.LastName },
	},
}
