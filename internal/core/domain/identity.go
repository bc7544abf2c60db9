package domain

import (
	"fmt"
	"strings"
)

// Identity is a user URI with an optional display name.
type Identity struct {
	URI         string `json:"uri"`
	DisplayName string `json:"display_name,omitempty"`
}

func NewIdentity(uri, displayName string) (Identity, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return Identity{}, ErrEmptyIdentityURI
	}
	return Identity{URI: uri, DisplayName: strings.TrimSpace(displayName)}, nil
}

// String renders the identity as "Display Name <uri>", or just the URI when
// there is no display name.
func (i Identity) String() string {
	if i.DisplayName == "" {
		return i.URI
	}
	return fmt.Sprintf("%s <%s>", i.DisplayName, i.URI)
}

// Equal compares identities by URI only.
func (i Identity) Equal(other Identity) bool {
	return i.URI == other.URI
}
