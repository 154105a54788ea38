package gate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader reads gate rules from a yaml file.
type Loader struct {
	filePath string
}

// NewLoader creates a loader for filePath. An empty path loads the defaults.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

func (l *Loader) Path() string { return l.filePath }

// Load reads, merges with defaults and validates the rules file.
func (l *Loader) Load() (Rules, error) {
	if l.filePath == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read gate rules file: %w", err)
	}
	return Parse(data)
}

// Parse decodes yaml rules. Sections left out keep their default.
func Parse(data []byte) (Rules, error) {
	var file Rules
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Rules{}, fmt.Errorf("failed to parse gate rules yaml: %w", err)
	}

	rules := DefaultRules()
	if file.Landing != "" {
		rules.Landing = file.Landing
	}
	if file.Home != "" {
		rules.Home = file.Home
	}
	if file.Public != nil {
		rules.Public = file.Public
	}
	if file.GuestOnly != nil {
		rules.GuestOnly = file.GuestOnly
	}
	if file.Protected != nil {
		rules.Protected = file.Protected
	}

	if err := rules.normalize(); err != nil {
		return Rules{}, err
	}
	return rules, nil
}

func (r *Rules) normalize() error {
	var err error
	if r.Landing, err = cleanPath(r.Landing); err != nil {
		return fmt.Errorf("landing: %w", err)
	}
	if r.Home, err = cleanPath(r.Home); err != nil {
		return fmt.Errorf("home: %w", err)
	}
	for name, list := range map[string][]string{"public": r.Public, "guest_only": r.GuestOnly, "protected": r.Protected} {
		for i, p := range list {
			if list[i], err = cleanPath(p); err != nil {
				return fmt.Errorf("%s[%d]: %w", name, i, err)
			}
		}
	}
	return nil
}

func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("path %q must start with /", p)
	}
	if len(p) > 1 {
		p = strings.TrimRight(p, "/")
		if p == "" {
			p = "/"
		}
	}
	return p, nil
}
