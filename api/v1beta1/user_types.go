package v1beta1

import "k8s.io/utils/ptr"

// Profile holds the optional user attributes shared by users and service accounts
type Profile struct {
	// +optional
	Email *string `json:"email,omitempty"`

	// +optional
	EmailVerified *bool `json:"emailVerified,omitempty"`

	// +optional
	FirstName *string `json:"firstName,omitempty"`

	// +optional
	LastName *string `json:"lastName,omitempty"`
}

// DeepCopy returns a copy that shares no pointers with p.
func (p Profile) DeepCopy() Profile {
	var out Profile
	if p.Email != nil {
		out.Email = ptr.To(*p.Email)
	}
	if p.EmailVerified != nil {
		out.EmailVerified = ptr.To(*p.EmailVerified)
	}
	if p.FirstName != nil {
		out.FirstName = ptr.To(*p.FirstName)
	}
	if p.LastName != nil {
		out.LastName = ptr.To(*p.LastName)
	}
	return out
}

// User defines a realm user that can log in with a password
type User struct {
	// +kubebuilder:validation:Required
	Username string `json:"username"`

	// Password is set as a non-temporary credential
	// +kubebuilder:validation:Required
	Password string `json:"password"`

	Profile `json:",inline"`
}

// NewUser returns a user with the given credentials and no profile attributes.
func NewUser(username, password string) User {
	return User{Username: username, Password: password}
}

// WithEmail returns a copy with the email address and its verified flag set.
func (u User) WithEmail(email string, verified bool) User {
	out := u.DeepCopy()
	out.Email = ptr.To(email)
	out.EmailVerified = ptr.To(verified)
	return out
}

// WithName returns a copy with first and last name set.
func (u User) WithName(firstName, lastName string) User {
	out := u.DeepCopy()
	out.FirstName = ptr.To(firstName)
	out.LastName = ptr.To(lastName)
	return out
}

// DeepCopy returns a copy that shares no pointers with u.
func (u User) DeepCopy() User {
	return User{Username: u.Username, Password: u.Password, Profile: u.Profile.DeepCopy()}
}

// ServiceAccount carries the profile attributes applied to a client's
// service account user. Keycloak creates the user itself, so there are no
// credentials.
type ServiceAccount struct {
	Profile `json:",inline"`
}

// WithEmail returns a copy with the email address and its verified flag set.
func (s ServiceAccount) WithEmail(email string, verified bool) ServiceAccount {
	out := s.DeepCopy()
	out.Email = ptr.To(email)
	out.EmailVerified = ptr.To(verified)
	return out
}

// WithName returns a copy with first and last name set.
func (s ServiceAccount) WithName(firstName, lastName string) ServiceAccount {
	out := s.DeepCopy()
	out.FirstName = ptr.To(firstName)
	out.LastName = ptr.To(lastName)
	return out
}

// DeepCopy returns a copy that shares no pointers with s.
func (s ServiceAccount) DeepCopy() ServiceAccount {
	return ServiceAccount{Profile: s.Profile.DeepCopy()}
}
