// Package v1beta1 contains the declarative realm configuration consumed by the
// provisioner and the realm descriptor it produces.
package v1beta1

import (
	"fmt"
	"os"

	"sigs.k8s.io/yaml"
)

// RealmConfiguration defines the desired state of a realm inside a fresh Keycloak instance
type RealmConfiguration struct {
	// Name is the realm name
	// +kubebuilder:validation:Required
	Name string `json:"name"`

	// Clients are created in order
	// +optional
	Clients []Client `json:"clients,omitempty"`

	// Users are created in order, after all clients
	// +optional
	Users []User `json:"users,omitempty"`
}

// RealmConfigurationList is the on-disk format of a realm file
type RealmConfigurationList struct {
	Realms []RealmConfiguration `json:"realms"`
}

// NewRealmConfiguration returns an empty configuration for the named realm.
func NewRealmConfiguration(name string) RealmConfiguration {
	return RealmConfiguration{Name: name}
}

// WithClients returns a copy with the given clients appended.
func (r RealmConfiguration) WithClients(clients ...Client) RealmConfiguration {
	out := r.DeepCopy()
	out.Clients = append(out.Clients, clients...)
	return out
}

// WithUsers returns a copy with the given users appended.
func (r RealmConfiguration) WithUsers(users ...User) RealmConfiguration {
	out := r.DeepCopy()
	out.Users = append(out.Users, users...)
	return out
}

// DeepCopy returns a copy that shares no slices or pointers with r.
func (r RealmConfiguration) DeepCopy() RealmConfiguration {
	out := RealmConfiguration{Name: r.Name}
	if r.Clients != nil {
		out.Clients = make([]Client, len(r.Clients))
		for i := range r.Clients {
			out.Clients[i] = r.Clients[i].DeepCopy()
		}
	}
	if r.Users != nil {
		out.Users = make([]User, len(r.Users))
		for i := range r.Users {
			out.Users[i] = r.Users[i].DeepCopy()
		}
	}
	return out
}

// LoadRealmConfigurations reads a YAML or JSON realm file. The file either holds
// a single realm or a list under the "realms" key.
func LoadRealmConfigurations(path string) ([]RealmConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read realm file: %w", err)
	}
	return ParseRealmConfigurations(data)
}

// ParseRealmConfigurations decodes realm configurations from YAML or JSON.
func ParseRealmConfigurations(data []byte) ([]RealmConfiguration, error) {
	var list RealmConfigurationList
	if err := yaml.UnmarshalStrict(data, &list); err == nil && len(list.Realms) > 0 {
		return list.Realms, nil
	}

	var single RealmConfiguration
	if err := yaml.UnmarshalStrict(data, &single); err != nil {
		return nil, fmt.Errorf("failed to parse realm configuration: %w", err)
	}
	if single.Name == "" {
		return nil, fmt.Errorf("realm configuration has no name and no realms list")
	}
	return []RealmConfiguration{single}, nil
}
