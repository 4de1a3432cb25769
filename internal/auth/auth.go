package auth

import (
	"fmt"

	"github.com/predictify/predictify/internal/domain"
)

// Authorizer checks whether a caller identity may perform admin operations
type Authorizer interface {
	RequireAdmin(identity string) error
}

// AllowList authorizes a fixed set of admin identities loaded from config
type AllowList struct {
	admins map[string]struct{}
}

// NewAllowList creates an AllowList from the configured admin identities
func NewAllowList(adminIDs []string) *AllowList {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}
	return &AllowList{admins: admins}
}

// RequireAdmin returns domain.ErrUnauthorizedCaller unless identity is an admin
func (a *AllowList) RequireAdmin(identity string) error {
	if _, ok := a.admins[identity]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnauthorizedCaller, identity)
	}
	return nil
}
