package cookierelay

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrMalformedCookie is returned when a Set-Cookie value has no name.
var ErrMalformedCookie = errors.New("malformed set-cookie")

// Cookie is one parsed Set-Cookie entry.
// MaxAge is only meaningful when HasMaxAge is set.
type Cookie struct {
	Name      string
	Value     string
	Path      string
	Domain    string
	Expires   time.Time
	MaxAge    int
	HasMaxAge bool
	HttpOnly  bool
	Secure    bool
	SameSite  http.SameSite
}

// extra layout seen from some backends, not covered by http.ParseTime
const netscapeTimeFormat = "Mon, 02-Jan-2006 15:04:05 MST"

// ParseSetCookie parses a single Set-Cookie header value:
//
//	accessToken=abc; Path=/; Max-Age=900; HttpOnly; Secure; SameSite=Lax
//
// Attribute names are case-insensitive, unknown attributes and attributes
// with unparsable values are ignored.
func ParseSetCookie(raw string) (Cookie, error) {
	parts := strings.Split(raw, ";")

	name, value, ok := strings.Cut(strings.TrimSpace(parts[0]), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Cookie{}, fmt.Errorf("%w: %q", ErrMalformedCookie, raw)
	}

	value = strings.TrimSpace(value)
	if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
		value = value[1 : len(value)-1]
	}

	c := Cookie{Name: name, Value: value}
	for _, attr := range parts[1:] {
		key, val, _ := strings.Cut(strings.TrimSpace(attr), "=")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)

		switch key {
		case "path":
			c.Path = val
		case "domain":
			c.Domain = val
		case "max-age":
			if n, err := strconv.Atoi(val); err == nil {
				c.MaxAge = n
				c.HasMaxAge = true
			}
		case "expires":
			if t, ok := parseCookieTime(val); ok {
				c.Expires = t
			}
		case "httponly":
			c.HttpOnly = true
		case "secure":
			c.Secure = true
		case "samesite":
			c.SameSite = parseSameSite(val)
		}
	}

	return c, nil
}

func parseCookieTime(v string) (time.Time, bool) {
	if t, err := http.ParseTime(v); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(netscapeTimeFormat, v); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(v) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// IsDeletion reports whether applying c must remove the cookie. Max-Age
// alone decides when present (<= 0 deletes); otherwise an Expires not
// after now deletes.
func (c Cookie) IsDeletion(now time.Time) bool {
	if c.HasMaxAge {
		return c.MaxAge <= 0
	}
	return !c.Expires.IsZero() && !c.Expires.After(now)
}

// Expiry is the absolute expiry of c. Max-Age wins when present and is
// translated relative to now, otherwise Expires is used. Zero means
// session cookie.
func (c Cookie) Expiry(now time.Time) time.Time {
	if c.HasMaxAge {
		return now.Add(time.Duration(c.MaxAge) * time.Second).UTC()
	}
	return c.Expires
}

// HTTPCookie converts c for http.SetCookie. Domain is dropped: the remote
// API's domain is not ours.
func (c Cookie) HTTPCookie(now time.Time) *http.Cookie {
	hc := &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		HttpOnly: c.HttpOnly,
		Secure:   c.Secure,
		SameSite: c.SameSite,
	}
	if hc.Path == "" {
		hc.Path = "/"
	}
	if c.IsDeletion(now) {
		hc.Value = ""
		hc.MaxAge = -1
		hc.Expires = time.Unix(0, 0)
		return hc
	}
	if exp := c.Expiry(now); !exp.IsZero() {
		hc.Expires = exp
	}
	if c.HasMaxAge {
		hc.MaxAge = c.MaxAge
	}
	return hc
}

// FromHTTP converts a cookie parsed by net/http.
// http.Cookie folds "Max-Age=0" into MaxAge < 0.
func FromHTTP(hc *http.Cookie) Cookie {
	c := Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Path:     hc.Path,
		Domain:   hc.Domain,
		Expires:  hc.Expires,
		HttpOnly: hc.HttpOnly,
		Secure:   hc.Secure,
		SameSite: hc.SameSite,
	}
	switch {
	case hc.MaxAge < 0:
		c.MaxAge, c.HasMaxAge = 0, true
	case hc.MaxAge > 0:
		c.MaxAge, c.HasMaxAge = hc.MaxAge, true
	}
	return c
}

// ParseAll parses every Set-Cookie value. Malformed entries are skipped and
// returned separately so the caller can log them.
func ParseAll(values []string) (cookies []Cookie, malformed []string) {
	for _, v := range values {
		c, err := ParseSetCookie(v)
		if err != nil {
			malformed = append(malformed, v)
			continue
		}
		cookies = append(cookies, c)
	}
	return cookies, malformed
}
