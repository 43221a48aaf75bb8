package v1beta1

import (
	"fmt"
	"strings"
)

// ConfigurationInvalidError lists every problem found in a realm configuration
type ConfigurationInvalidError struct {
	Realm    string
	Problems []string
}

func (e *ConfigurationInvalidError) Error() string {
	return fmt.Sprintf("invalid configuration for realm %q: %s", e.Realm, strings.Join(e.Problems, "; "))
}

// Validate checks the configuration before any command is issued.
func (r RealmConfiguration) Validate() error {
	var problems []string
	add := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(r.Name) == "" {
		add("realm name is required")
	}

	clients := make(map[string]struct{}, len(r.Clients))
	for i, c := range r.Clients {
		if strings.TrimSpace(c.Name) == "" {
			add("clients[%d]: name is required", i)
		} else if _, ok := clients[c.Name]; ok {
			add("clients[%d]: duplicate client %q", i, c.Name)
		}
		clients[c.Name] = struct{}{}

		if c.PatchesServiceAccount() && c.Secret == nil {
			add("client %q: a secret is required when service accounts are enabled with a service account user", c.Name)
		}
		if c.Secret != nil && *c.Secret == "" {
			add("client %q: secret must not be empty", c.Name)
		}

		mappers := make(map[string]struct{}, len(c.Mappers))
		for j, m := range c.Mappers {
			if m.Name == "" || m.Protocol == "" || m.MapperType == "" {
				add("client %q: mappers[%d]: name, protocol and mapperType are required", c.Name, j)
				continue
			}
			if _, ok := mappers[m.Name]; ok {
				add("client %q: duplicate mapper %q", c.Name, m.Name)
			}
			mappers[m.Name] = struct{}{}
		}
	}

	users := make(map[string]struct{}, len(r.Users))
	for i, u := range r.Users {
		if strings.TrimSpace(u.Username) == "" {
			add("users[%d]: username is required", i)
			continue
		}
		if _, ok := users[u.Username]; ok {
			add("users[%d]: duplicate user %q", i, u.Username)
		}
		users[u.Username] = struct{}{}
		if u.Password == "" {
			add("user %q: password is required", u.Username)
		}
	}

	if len(problems) > 0 {
		return &ConfigurationInvalidError{Realm: r.Name, Problems: problems}
	}
	return nil
}
