// Package remote holds typed clients for the remote API resources. Every
// call goes through a cookierelay.Relay with the caller's cookie store.
package remote

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MrSnakeDoc/jobtrail/internal/cookierelay"
	"github.com/MrSnakeDoc/jobtrail/internal/domain"
)

// Resource is a CRUD collection under the API, e.g. /api/applications.
type Resource[T any] struct {
	relay *cookierelay.Relay
	path  string
}

// NewResource binds path to relay.
func NewResource[T any](relay *cookierelay.Relay, path string) Resource[T] {
	return Resource[T]{relay: relay, path: path}
}

func (r Resource[T]) Path() string { return r.path }

// List returns the collection, filtered by query.
func (r Resource[T]) List(ctx context.Context, store cookierelay.CookieStore, query url.Values) ([]T, error) {
	endpoint := r.path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	out := []T{}
	if err := r.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodGet, Endpoint: endpoint}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r Resource[T]) Get(ctx context.Context, store cookierelay.CookieStore, id string) (T, error) {
	var out T
	err := r.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodGet, Endpoint: r.item(id)}, &out)
	return out, err
}

func (r Resource[T]) Create(ctx context.Context, store cookierelay.CookieStore, body any) (T, error) {
	var out T
	err := r.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodPost, Endpoint: r.path, Body: body}, &out)
	return out, err
}

func (r Resource[T]) Update(ctx context.Context, store cookierelay.CookieStore, id string, body any) (T, error) {
	var out T
	err := r.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodPut, Endpoint: r.item(id), Body: body}, &out)
	return out, err
}

func (r Resource[T]) Delete(ctx context.Context, store cookierelay.CookieStore, id string) error {
	return r.relay.Do(ctx, store, cookierelay.Request{Method: http.MethodDelete, Endpoint: r.item(id)}, nil)
}

func (r Resource[T]) item(id string) string {
	return r.path + "/" + url.PathEscape(id)
}

// Client groups the resources of the remote API.
type Client struct {
	Relay *cookierelay.Relay

	Applications Resource[domain.JobApplication]
	Interviews   Resource[domain.Interview]
	Companies    Resource[domain.Company]
	Contacts     Resource[domain.Contact]
	Resumes      Resource[domain.Resume]
	Bookmarks    Resource[domain.Bookmark]
	Logs         Logs
	Auth         Auth
}

// New builds the resource clients over relay.
func New(relay *cookierelay.Relay) *Client {
	return &Client{
		Relay:        relay,
		Applications: NewResource[domain.JobApplication](relay, "/api/applications"),
		Interviews:   NewResource[domain.Interview](relay, "/api/interviews"),
		Companies:    NewResource[domain.Company](relay, "/api/companies"),
		Contacts:     NewResource[domain.Contact](relay, "/api/contacts"),
		Resumes:      NewResource[domain.Resume](relay, "/api/resumes"),
		Bookmarks:    NewResource[domain.Bookmark](relay, "/api/bookmarks"),
		Logs:         Logs{relay: relay, path: "/api/logs"},
		Auth:         Auth{relay: relay},
	}
}
