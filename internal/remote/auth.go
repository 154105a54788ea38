package remote

import (
	"context"
	"net/http"

	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

// Auth covers the session endpoints that return a user.
type Auth struct {
	relay *cookierelay.Relay
}

// Me returns the user owning the store's session.
func (a Auth) Me(ctx context.Context, store cookierelay.CookieStore) (domain.User, error) {
	var u domain.User
	err := a.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodGet, Endpoint: "/api/auth/me"}, &u)
	return u, err
}
