package fixture

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// MinKeycloakMajorVersion is the first release of the Quarkus distribution,
	// which ships kcadm.sh under /opt/keycloak
	MinKeycloakMajorVersion = 17

	// MinKeycloakVersionString is the human-readable minimum version
	MinKeycloakVersionString = "17.0.0"
)

// imageTag returns the tag of an image reference, or "" when there is none.
func imageTag(image string) string {
	if idx := strings.Index(image, "@"); idx >= 0 {
		image = image[:idx]
	}
	slash := strings.LastIndex(image, "/")
	colon := strings.LastIndex(image, ":")
	if colon <= slash {
		return ""
	}
	return image[colon+1:]
}

// validateImage rejects images whose tag names a Keycloak release older than
// the minimum. Untagged images and non-numeric tags such as "latest" or
// "nightly" are accepted.
func validateImage(image string) error {
	if image == "" {
		return fmt.Errorf("image must not be empty")
	}
	tag := imageTag(image)
	if tag == "" || tag[0] < '0' || tag[0] > '9' {
		return nil
	}
	if err := validateKeycloakVersion(tag); err != nil {
		return fmt.Errorf("image %s: %w", image, err)
	}
	return nil
}

// validateKeycloakVersion checks that the version is supported
func validateKeycloakVersion(version string) error {
	// Strip any suffix like "-SNAPSHOT", "-RC1", etc.
	cleanVersion := version
	if idx := strings.Index(version, "-"); idx > 0 {
		cleanVersion = version[:idx]
	}

	parts := strings.Split(cleanVersion, ".")
	majorVersion, err := strconv.Atoi(parts[0])
	if err != nil {
		return fmt.Errorf("invalid major version in %s: %w", version, err)
	}

	if majorVersion < MinKeycloakMajorVersion {
		return fmt.Errorf("Keycloak version %s is not supported (minimum: %s)", version, MinKeycloakVersionString)
	}

	return nil
}
