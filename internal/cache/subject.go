package cache

import (
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var subjectClaims = []string{"sub", "id", "userId", "user_id"}

// Subject returns the user id carried by an access token, or "" when the
// token is not a JWT or has no such claim. The signature is not verified:
// the id only scopes cache keys, the remote API still checks the token on
// every upstream call.
func Subject(token string) string {
	token = strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
	if token == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	for _, name := range subjectClaims {
		switch v := claims[name].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
