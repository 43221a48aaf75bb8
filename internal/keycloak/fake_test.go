package keycloak

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

const testKeyID = "test-key"

// fakeKeycloak serves the subset of the Keycloak HTTP API used by Client
type fakeKeycloak struct {
	key    *rsa.PrivateKey
	server *httptest.Server

	clients  map[string]ClientRepresentation
	mappers  map[string][]ProtocolMapperRepresentation
	accounts map[string]UserRepresentation
	users    map[string]UserRepresentation
	// secrets by clientId, passwords by username
	secrets   map[string]string
	passwords map[string]string

	tokenRequests atomic.Int32
}

func newFakeKeycloak(t *testing.T) *fakeKeycloak {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}

	f := &fakeKeycloak{
		key:       key,
		clients:   map[string]ClientRepresentation{},
		mappers:   map[string][]ProtocolMapperRepresentation{},
		accounts:  map[string]UserRepresentation{},
		users:     map[string]UserRepresentation{},
		secrets:   map[string]string{},
		passwords: map[string]string{"admin": "admin"},
	}

	r := chi.NewRouter()
	r.Get("/realms/{realm}/.well-known/openid-configuration", f.discovery)
	r.Get("/realms/{realm}/protocol/openid-connect/certs", f.certs)
	r.Post("/realms/{realm}/protocol/openid-connect/token", f.token)
	r.Route("/admin/realms/{realm}", func(r chi.Router) {
		r.Use(f.requireBearer)
		r.Get("/", f.realm)
		r.Get("/clients", f.listClients)
		r.Get("/clients/{id}/protocol-mappers/models", f.listMappers)
		r.Get("/clients/{id}/service-account-user", f.serviceAccount)
		r.Get("/users", f.listUsers)
	})

	f.server = httptest.NewServer(r)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeKeycloak) URL() string {
	return f.server.URL
}

func (f *fakeKeycloak) issuer(realm string) string {
	return f.server.URL + "/realms/" + realm
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeKeycloak) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "HTTP 401 Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeKeycloak) discovery(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	if realm != "demorealm" && realm != "master" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Realm does not exist"})
		return
	}
	iss := f.issuer(realm)
	writeJSON(w, http.StatusOK, Discovery{
		Issuer:        iss,
		TokenEndpoint: iss + "/protocol/openid-connect/token",
		JWKSURI:       iss + "/protocol/openid-connect/certs",
	})
}

func (f *fakeKeycloak) certs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buildJWKSetJSON(&f.key.PublicKey, testKeyID))
}

func (f *fakeKeycloak) token(w http.ResponseWriter, r *http.Request) {
	f.tokenRequests.Add(1)
	if err := r.ParseForm(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}
	realm := chi.URLParam(r, "realm")
	clientID := r.PostForm.Get("client_id")

	claims := jwt.MapClaims{
		"iss": f.issuer(realm),
		"exp": jwt.NewNumericDate(time.Now().Add(5 * time.Minute)),
		"iat": jwt.NewNumericDate(time.Now()),
		"azp": clientID,
	}

	switch r.PostForm.Get("grant_type") {
	case "client_credentials":
		if secret, ok := f.secrets[clientID]; !ok || secret != r.PostForm.Get("client_secret") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized_client", "error_description": "Invalid client or Invalid client credentials"})
			return
		}
		claims["aud"] = []string{clientID, "account"}
		claims["client_id"] = clientID
		claims["preferred_username"] = "service-account-" + clientID
		if sa, ok := f.accounts[clientID]; ok && sa.Email != nil {
			claims["email"] = *sa.Email
		}
	case "password":
		username := r.PostForm.Get("username")
		if pw, ok := f.passwords[username]; !ok || pw != r.PostForm.Get("password") {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_grant", "error_description": "Invalid user credentials"})
			return
		}
		claims["aud"] = "account"
		claims["preferred_username"] = username
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unsupported_grant_type"})
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(f.key)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: signed, ExpiresIn: 300, TokenType: "Bearer"})
}

func (f *fakeKeycloak) realm(w http.ResponseWriter, r *http.Request) {
	realm := chi.URLParam(r, "realm")
	if realm != "demorealm" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Realm not found."})
		return
	}
	enabled := true
	writeJSON(w, http.StatusOK, RealmRepresentation{Realm: &realm, Enabled: &enabled})
}

func (f *fakeKeycloak) listClients(w http.ResponseWriter, r *http.Request) {
	out := []ClientRepresentation{}
	if c, ok := f.clients[r.URL.Query().Get("clientId")]; ok {
		out = append(out, c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (f *fakeKeycloak) listMappers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, f.mappers[chi.URLParam(r, "id")])
}

func (f *fakeKeycloak) serviceAccount(w http.ResponseWriter, r *http.Request) {
	for clientID, c := range f.clients {
		if c.ID != nil && *c.ID == chi.URLParam(r, "id") {
			if sa, ok := f.accounts[clientID]; ok {
				writeJSON(w, http.StatusOK, sa)
				return
			}
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Service account not enabled"})
}

func (f *fakeKeycloak) listUsers(w http.ResponseWriter, r *http.Request) {
	out := []UserRepresentation{}
	if u, ok := f.users[r.URL.Query().Get("username")]; ok && r.URL.Query().Get("exact") == "true" {
		out = append(out, u)
	}
	writeJSON(w, http.StatusOK, out)
}

// buildJWKSetJSON builds a JWKS document for an RSA public key
func buildJWKSetJSON(pub *rsa.PublicKey, kid string) json.RawMessage {
	jwks := map[string]any{
		"keys": []map[string]any{
			{
				"kty": "RSA",
				"kid": kid,
				"use": "sig",
				"alg": "RS256",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	}
	data, _ := json.Marshal(jwks)
	return data
}
