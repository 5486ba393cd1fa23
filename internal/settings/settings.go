// Package settings persists the application flags that live outside the
// entity store: theme, locale, lock state, one-shot flags and the two
// "last seen version" markers.
package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/svakisto/internal/atomicfile"
)

// FileName is the settings file inside the config directory.
const FileName = "settings.yaml"

// Themes.
const (
	ThemeSystem = "system"
	ThemeLight  = "light"
	ThemeDark   = "dark"
)

// ErrUnknownKey is returned by Set for keys that cannot be set by name.
var ErrUnknownKey = errors.New("unknown settings key")

// Settings is the persisted flag set.
type Settings struct {
	Theme             string `yaml:"theme" validate:"oneof=system light dark"`
	Locale            string `yaml:"locale" validate:"required,min=2,max=16"`
	BiometricLock     bool   `yaml:"biometric_lock"`
	PromoShown        bool   `yaml:"promo_shown"`
	LastSeenChangelog string `yaml:"last_seen_changelog,omitempty"`
	LastSeenAutoPopup string `yaml:"last_seen_auto_popup,omitempty"`
	LockCredential    string `yaml:"lock_credential,omitempty"`
}

// Default returns the settings used before anything was saved.
func Default() Settings {
	return Settings{Theme: ThemeSystem, Locale: "en"}
}

var validate = validator.New()

// Validate checks the user-editable fields.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Path returns the settings file path inside dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads dir/settings.yaml. A missing file yields Default. Fields absent
// from the file keep their defaults.
func Load(dir string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(Path(dir))
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("reading settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parsing %s: %w", Path(dir), err)
	}
	return s, nil
}

// Save writes s to dir/settings.yaml atomically.
func (s Settings) Save(dir string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return atomicfile.WriteFile(Path(dir), data, 0o600)
}

// settable lists the keys accepted by Set.
var settable = map[string]func(s *Settings, v string) error{
	"theme": func(s *Settings, v string) error {
		s.Theme = strings.ToLower(v)
		return nil
	},
	"locale": func(s *Settings, v string) error {
		s.Locale = v
		return nil
	},
	"promo_shown": func(s *Settings, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		s.PromoShown = b
		return nil
	},
}

// Keys returns the names accepted by Set, sorted.
func Keys() []string {
	keys := make([]string, 0, len(settable))
	for k := range settable {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one user-editable key from its string form and validates the
// result. Lock state and version markers have dedicated commands.
func (s *Settings) Set(key, value string) error {
	set, ok := settable[key]
	if !ok {
		return fmt.Errorf("%w: %q (valid: %s)", ErrUnknownKey, key, strings.Join(Keys(), ", "))
	}
	next := *s
	if err := set(&next, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*s = next
	return nil
}
