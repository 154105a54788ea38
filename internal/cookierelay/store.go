package cookierelay

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// CookieStore is the ambient cookie jar of one server-rendered request.
// Cookies are keyed by name only.
type CookieStore interface {
	Get(name string) (string, bool)
	All() []Cookie
	Set(c Cookie)
	Delete(name, path string)
}

// Apply writes every cookie into store: deletions are deleted, the others
// are set with their attributes and Expires pinned to their absolute expiry.
func Apply(store CookieStore, cookies []Cookie, now time.Time) (set, deleted int) {
	for _, c := range cookies {
		if c.IsDeletion(now) {
			store.Delete(c.Name, c.Path)
			deleted++
			continue
		}
		c.Expires = c.Expiry(now)
		store.Set(c)
		set++
	}
	return set, deleted
}

// HeaderValue serializes cookies as a single Cookie request header.
func HeaderValue(cookies []Cookie) string {
	parts := make([]string, 0, len(cookies))
	for _, c := range cookies {
		if c.Name == "" {
			continue
		}
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}

// MemoryStore is a standalone CookieStore.
type MemoryStore struct {
	mu      sync.RWMutex
	cookies map[string]Cookie
}

// NewMemoryStore returns a store seeded with name=value pairs.
func NewMemoryStore(seed map[string]string) *MemoryStore {
	s := &MemoryStore{cookies: make(map[string]Cookie, len(seed))}
	for k, v := range seed {
		s.cookies[k] = Cookie{Name: k, Value: v, Path: "/"}
	}
	return s
}

func (s *MemoryStore) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cookies[name]
	return c.Value, ok
}

// Cookie returns the full record, attributes included.
func (s *MemoryStore) Cookie(name string) (Cookie, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cookies[name]
	return c, ok
}

func (s *MemoryStore) All() []Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Cookie, 0, len(s.cookies))
	for _, c := range s.cookies {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *MemoryStore) Set(c Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies[c.Name] = c
}

func (s *MemoryStore) Delete(name, _ string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cookies, name)
}

// HTTPStore reads the inbound request's cookies and writes Set-Cookie
// headers on the response. Later reads observe earlier writes.
// Writes must happen before the handler writes the response status.
type HTTPStore struct {
	mu        sync.Mutex
	w         http.ResponseWriter
	inbound   []Cookie
	overrides map[string]*Cookie // nil entry = deleted
	secure    bool
	sealed    bool
	now       func() time.Time
}

// NewHTTPStore binds a store to one request/response pair. With
// forceSecure, every written cookie gets the Secure attribute.
func NewHTTPStore(w http.ResponseWriter, r *http.Request, forceSecure bool) *HTTPStore {
	in := r.Cookies()
	inbound := make([]Cookie, 0, len(in))
	for _, hc := range in {
		inbound = append(inbound, Cookie{Name: hc.Name, Value: hc.Value})
	}
	return &HTTPStore{
		w:         w,
		inbound:   inbound,
		overrides: make(map[string]*Cookie),
		secure:    forceSecure,
		now:       time.Now,
	}
}

func (s *HTTPStore) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.overrides[name]; ok {
		if c == nil {
			return "", false
		}
		return c.Value, true
	}
	for _, c := range s.inbound {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

func (s *HTTPStore) All() []Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Cookie, 0, len(s.inbound)+len(s.overrides))
	seen := make(map[string]bool, len(s.inbound))
	for _, c := range s.inbound {
		if seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		if o, ok := s.overrides[c.Name]; ok {
			if o != nil {
				out = append(out, *o)
			}
			continue
		}
		out = append(out, c)
	}

	added := make([]string, 0, len(s.overrides))
	for name, o := range s.overrides {
		if !seen[name] && o != nil {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	for _, name := range added {
		out = append(out, *s.overrides[name])
	}
	return out
}

func (s *HTTPStore) Set(c Cookie) {
	if s.secure {
		c.Secure = true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[c.Name] = &c
	if !s.sealed {
		http.SetCookie(s.w, c.HTTPCookie(s.now()))
	}
}

func (s *HTTPStore) Delete(name, path string) {
	if path == "" {
		path = "/"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[name] = nil
	if !s.sealed {
		http.SetCookie(s.w, &http.Cookie{
			Name:    name,
			Value:   "",
			Path:    path,
			MaxAge:  -1,
			Expires: time.Unix(0, 0),
		})
	}
}

// Seal stops the store from writing to the response; later changes are
// only visible to reads. The handler seals the store before it writes the
// response itself, so a writer finishing late cannot touch the headers.
func (s *HTTPStore) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}
