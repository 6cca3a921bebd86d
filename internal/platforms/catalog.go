// Package platforms describes the social platforms posts and accounts can target.
package platforms

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

// DefaultPlatform is used when a post does not name any platform.
const DefaultPlatform = "instagram"

var platformIDRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

type fileConfig struct {
	Platforms []PlatformConfig `yaml:"platforms"`
}

// PlatformConfig is one entry of the platforms YAML file.
type PlatformConfig struct {
	ID            string   `yaml:"id"`
	DisplayName   string   `yaml:"display_name"`
	AuthURL       string   `yaml:"auth_url"`
	TokenURL      string   `yaml:"token_url"`
	ClientIDEnv   string   `yaml:"client_id_env"`
	Scopes        []string `yaml:"scopes"`
	RatePerMinute int      `yaml:"rate_per_minute"`
}

// Platform is a normalized catalog entry.
type Platform struct {
	ID            string
	DisplayName   string
	AuthURL       string
	TokenURL      string
	ClientIDEnv   string
	Scopes        []string
	RatePerMinute int
}

// Catalog is an immutable set of platforms keyed by ID.
type Catalog struct {
	byID map[string]Platform
	ids  []string
}

// Load reads the catalog from path. An empty path searches the usual
// locations and falls back to the built-in defaults when nothing is found.
func Load(path string) (*Catalog, error) {
	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}

	var cfgs []PlatformConfig
	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, fmt.Errorf("failed to read platforms file %q: %w", resolved, err)
		}
		var cfg fileConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse platforms file %q: %w", resolved, err)
		}
		cfgs = cfg.Platforms
	}
	if len(cfgs) == 0 {
		cfgs = defaultPlatforms()
	}
	return New(cfgs), nil
}

// New builds a catalog from config entries, dropping entries with invalid IDs.
func New(cfgs []PlatformConfig) *Catalog {
	c := &Catalog{byID: make(map[string]Platform, len(cfgs))}
	for _, cfg := range cfgs {
		p, ok := normalizeConfig(cfg)
		if !ok {
			continue
		}
		if _, dup := c.byID[p.ID]; !dup {
			c.ids = append(c.ids, p.ID)
		}
		c.byID[p.ID] = p
	}
	sort.Strings(c.ids)
	return c
}

// Lookup returns the platform registered under id.
func (c *Catalog) Lookup(id string) (Platform, bool) {
	p, ok := c.byID[Normalize(id)]
	return p, ok
}

// IDs returns the registered platform IDs in sorted order.
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.ids...)
}

// OAuthConfig returns an oauth2 config for a platform that declares its
// endpoints and has a client ID in the environment.
func (c *Catalog) OAuthConfig(id, redirectURL string) (*oauth2.Config, bool) {
	p, ok := c.Lookup(id)
	if !ok || p.AuthURL == "" || p.ClientIDEnv == "" {
		return nil, false
	}
	clientID := strings.TrimSpace(os.Getenv(p.ClientIDEnv))
	if clientID == "" {
		return nil, false
	}
	return &oauth2.Config{
		ClientID:    clientID,
		RedirectURL: redirectURL,
		Scopes:      append([]string(nil), p.Scopes...),
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.AuthURL,
			TokenURL: p.TokenURL,
		},
	}, true
}

// Normalize lower-cases and trims a platform tag.
func Normalize(tag string) string {
	return strings.ToLower(strings.TrimSpace(tag))
}

// AccountName derives the display name given to a freshly connected account.
func AccountName(platform string) string {
	return Normalize(platform) + "_demo_account"
}

func resolveConfigPath(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", err
		}
		return explicit, nil
	}

	candidates := []string{
		"config/platforms.yaml",
		"/etc/post-scheduler/platforms.yaml",
	}
	if homeDir, err := os.UserHomeDir(); err == nil && homeDir != "" {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "post-scheduler", "platforms.yaml"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", nil
}

func normalizeConfig(cfg PlatformConfig) (Platform, bool) {
	id := Normalize(cfg.ID)
	if !platformIDRegexp.MatchString(id) {
		return Platform{}, false
	}
	name := strings.TrimSpace(cfg.DisplayName)
	if name == "" {
		name = strings.ToUpper(id[:1]) + id[1:]
	}
	rate := cfg.RatePerMinute
	if rate < 0 {
		rate = 0
	}
	scopes := make([]string, 0, len(cfg.Scopes))
	for _, s := range cfg.Scopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}
	return Platform{
		ID:            id,
		DisplayName:   name,
		AuthURL:       strings.TrimSpace(cfg.AuthURL),
		TokenURL:      strings.TrimSpace(cfg.TokenURL),
		ClientIDEnv:   strings.TrimSpace(cfg.ClientIDEnv),
		Scopes:        scopes,
		RatePerMinute: rate,
	}, true
}

func defaultPlatforms() []PlatformConfig {
	return []PlatformConfig{
		{ID: "facebook", DisplayName: "Facebook"},
		{ID: "instagram", DisplayName: "Instagram"},
		{ID: "linkedin", DisplayName: "LinkedIn"},
		{ID: "tiktok", DisplayName: "TikTok"},
		{ID: "twitter", DisplayName: "Twitter"},
	}
}
