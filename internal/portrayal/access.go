package portrayal

import (
	"slices"

	"github.com/edgard/sketchbot/internal/config"
)

// Policy decides who may run the command. Admins always pass and may read
// other streams.
type Policy struct {
	AdminIDs []string
	Mode     string
	UserIDs  []string
}

// NewPolicy builds a Policy from the permissions config.
func NewPolicy(cfg config.PermissionsConfig) Policy {
	return Policy{
		AdminIDs: slices.Clone(cfg.AdminIDs),
		Mode:     cfg.Mode,
		UserIDs:  slices.Clone(cfg.UserIDs),
	}
}

// IsAdmin reports whether userID is an administrator.
func (p Policy) IsAdmin(userID string) bool {
	return userID != "" && slices.Contains(p.AdminIDs, userID)
}

// Allowed reports whether userID may use the command. In whitelist mode only
// listed users pass; otherwise listed users are refused.
func (p Policy) Allowed(userID string) bool {
	if p.IsAdmin(userID) {
		return true
	}
	listed := slices.Contains(p.UserIDs, userID)
	if p.Mode == config.PermissionWhitelist {
		return listed
	}
	return !listed
}
