// Package kcadm builds Keycloak admin CLI (kcadm.sh) invocations and
// interprets their results. Builders are pure: they only assemble tokens.
package kcadm

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	keycloakv1beta1 "github.com/Hostzero-GmbH/keycloak-testcontainer/api/v1beta1"
)

const (
	// DefaultCommand is the admin CLI of the Quarkus based Keycloak distribution
	DefaultCommand = "/opt/keycloak/bin/kcadm.sh"

	// DefaultServer is the admin endpoint as seen from inside the container
	DefaultServer = "http://localhost:8080/"

	// MasterRealm is the realm the administrative user logs in to
	MasterRealm = "master"

	// Shell runs guarded commands
	Shell = "/bin/sh"

	redacted = "******"
)

// Session holds the parameters shared by every command of one provisioning run
type Session struct {
	// Command is the path of kcadm.sh inside the container
	Command string
	// Server is the admin endpoint used at login
	Server string
	// AdminRealm is the realm of the administrative user
	AdminRealm string
	// ConfigPath selects a private kcadm config file so that concurrent runs
	// do not share login state. Empty means the CLI default.
	ConfigPath string
}

// NewSession returns a session with the container defaults.
func NewSession() Session {
	return Session{
		Command:    DefaultCommand,
		Server:     DefaultServer,
		AdminRealm: MasterRealm,
	}
}

// WithConfigPath returns a copy of the session using its own config file.
func (s Session) WithConfigPath(path string) Session {
	s.ConfigPath = path
	return s
}

// command starts a token list with the CLI path, the given verb tokens and the
// session's config option.
func (s Session) command(verb ...string) []string {
	cmd := s.Command
	if cmd == "" {
		cmd = DefaultCommand
	}
	tokens := append([]string{cmd}, verb...)
	if s.ConfigPath != "" {
		tokens = append(tokens, "--config", s.ConfigPath)
	}
	return tokens
}

func set(key, value string) []string {
	return []string{"-s", key + "=" + value}
}

// ============================================================================
// Builders
// ============================================================================

// Login authenticates the CLI session as the administrative user.
func (s Session) Login(username, password string) []string {
	server, realm := s.Server, s.AdminRealm
	if server == "" {
		server = DefaultServer
	}
	if realm == "" {
		realm = MasterRealm
	}
	return append(s.command("config", "credentials"),
		"--server", server,
		"--realm", realm,
		"--user", username,
		"--password", password,
	)
}

// CreateRealm creates an enabled realm.
func (s Session) CreateRealm(name string) []string {
	tokens := s.command("create", "realms")
	tokens = append(tokens, set("realm", name)...)
	tokens = append(tokens, set("enabled", "true")...)
	return append(tokens, "-o")
}

// CreateRealmIfAbsent creates the realm unless it already exists. The check
// runs in the same invocation so that an existing realm is not reported as a
// failure.
func (s Session) CreateRealmIfAbsent(name string) []string {
	get := append(s.command("get", "realms/"+name), "--fields", "realm")
	script := fmt.Sprintf("%s >/dev/null 2>&1 || %s", ShellJoin(get), ShellJoin(s.CreateRealm(name)))
	return []string{Shell, "-c", script}
}

// CreateClient creates an OpenID Connect client.
func (s Session) CreateClient(realm string, client keycloakv1beta1.Client) []string {
	tokens := append(s.command("create", "clients"), "-r", realm)
	tokens = append(tokens, set("clientId", client.Name)...)
	tokens = append(tokens, set("redirectUris", redirectURIs(client.UniqueRedirectURIs()))...)
	tokens = append(tokens, set("protocol", keycloakv1beta1.ProtocolOpenIDConnect)...)
	return appendFields(tokens, clientFields, client)
}

// CreateProtocolMapper creates a mapper under the client with the given internal id.
func (s Session) CreateProtocolMapper(realm, clientName, clientID string, mapper keycloakv1beta1.ProtocolMapper) []string {
	tokens := append(s.command("create", "clients/"+clientID+"/protocol-mappers/models"), "-r", realm)
	tokens = append(tokens, set("name", mapper.Name)...)
	tokens = append(tokens, set("protocol", mapper.Protocol)...)
	tokens = append(tokens, set("protocolMapper", mapper.MapperType)...)
	tokens = append(tokens, set("consentRequired", strconv.FormatBool(mapper.ConsentRequired))...)
	tokens = append(tokens, set(mapperConfig("included.client.audience"), quote(mapper.Audience(clientName)))...)
	tokens = append(tokens, set(mapperConfig("id.token.claim"), quote(strconv.FormatBool(mapper.AddToIDToken)))...)
	tokens = append(tokens, set(mapperConfig("access.token.claim"), quote(strconv.FormatBool(mapper.AccessTokenClaim())))...)
	return tokens
}

// GetServiceAccountUser fetches the service account user of a client.
func (s Session) GetServiceAccountUser(realm, clientID string) []string {
	return append(s.command("get", "clients/"+clientID+"/service-account-user"), "-r", realm)
}

// GetClient fetches a client by internal id.
func (s Session) GetClient(realm, clientID string) []string {
	return append(s.command("get", "clients/"+clientID+"/"), "-r", realm)
}

// UpdateUser applies the present profile fields to an existing user.
func (s Session) UpdateUser(realm, userID string, profile keycloakv1beta1.Profile) []string {
	tokens := append(s.command("update", "users/"+userID), "-r", realm)
	return appendFields(tokens, profileFields, profile)
}

// CreateUser creates an enabled user with its profile fields.
func (s Session) CreateUser(realm string, user keycloakv1beta1.User) []string {
	tokens := append(s.command("create", "users"), "-r", realm)
	tokens = append(tokens, set("username", user.Username)...)
	tokens = append(tokens, set("enabled", "true")...)
	return appendFields(tokens, profileFields, user.Profile)
}

// SetPassword sets a non-temporary password for the user.
func (s Session) SetPassword(realm, username, password string) []string {
	return append(s.command("set-password"),
		"-r", realm,
		"--username", username,
		"--new-password", password,
	)
}

// ============================================================================
// Token helpers
// ============================================================================

func redirectURIs(uris []string) string {
	quoted := make([]string, len(uris))
	for i, uri := range uris {
		quoted[i] = quote(uri)
	}
	return "[" + strings.Join(quoted, ",") + "]"
}

func mapperConfig(key string) string {
	return "config." + quote(key)
}

func quote(s string) string {
	return `"` + s + `"`
}

// ShellJoin renders tokens as a POSIX shell command line that reproduces them exactly.
func ShellJoin(tokens []string) string {
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = "'" + strings.ReplaceAll(t, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

// Redact returns a copy of tokens with credentials masked, for logging.
func Redact(tokens []string) []string {
	out := make([]string, len(tokens))
	copy(out, tokens)
	for i := range out {
		switch {
		case (out[i] == "--password" || out[i] == "--new-password") && i+1 < len(out):
			out[i+1] = redacted
		case strings.HasPrefix(out[i], "secret="):
			out[i] = "secret=" + redacted
		}
	}
	return out
}

var secretField = regexp.MustCompile(`("secret"\s*:\s*)"(?:[^"\\]|\\.)*"`)

// RedactOutput masks client secrets in JSON printed by get commands, for logging.
func RedactOutput(stdout string) string {
	return secretField.ReplaceAllString(stdout, `${1}"`+redacted+`"`)
}

// Operation names a command for logs and metrics, e.g. "create clients".
func Operation(tokens []string) string {
	if len(tokens) >= 3 && tokens[0] == Shell && tokens[1] == "-c" {
		return "create realms"
	}
	if len(tokens) < 2 {
		return strings.Join(tokens, " ")
	}
	verb := tokens[1]
	if len(tokens) < 3 || strings.HasPrefix(tokens[2], "-") {
		return verb
	}
	resource := tokens[2]
	// strip ids so that labels stay bounded
	parts := strings.Split(strings.Trim(resource, "/"), "/")
	if len(parts) > 1 {
		parts[1] = "{id}"
	}
	return verb + " " + strings.Join(parts, "/")
}
