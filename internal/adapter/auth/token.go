// Package auth checks the shared API token presented to the gRPC and HTTP surfaces.
package auth

import (
	"crypto/subtle"
	"strings"
)

const bearerPrefix = "Bearer "

// TokenMatches compares a presented authorization value with the expected token.
// The value may carry a "Bearer " prefix. An empty expected token never matches.
func TokenMatches(presented, validToken string) bool {
	if validToken == "" {
		return false
	}
	presented = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(presented), bearerPrefix))
	return subtle.ConstantTimeCompare([]byte(presented), []byte(validToken)) == 1
}
