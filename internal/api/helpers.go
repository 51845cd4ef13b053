package api

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// requireActor validates the X-Member-ID header carried on every mutating
// request. Identity is asserted by the trusted local client; board membership
// is enforced by the service layer.
func requireActor(memberID string) (string, error) {
	actor := strings.TrimSpace(memberID)
	if actor == "" {
		return "", huma.Error401Unauthorized("Missing X-Member-ID header")
	}
	return actor, nil
}
