package workspace

import (
	"fmt"
	"regexp"

	"github.com/BurntSushi/toml"
)

const DefaultSlug = "main"

var slugRegexp = regexp.MustCompile(`^[a-z0-9_-]{1,64}$`)

type defaults struct {
	DefaultRestaurant string `toml:"default_restaurant"`
}

// Resolve determines the active restaurant slug using precedence:
// 1. flagOverride (--restaurant flag)
// 2. ~/.pedeai/default.toml default_restaurant
// 3. "main"
func Resolve(flagOverride string) string {
	if flagOverride != "" {
		return flagOverride
	}
	var d defaults
	if _, err := toml.DecodeFile(DefaultPath(), &d); err == nil && d.DefaultRestaurant != "" {
		return d.DefaultRestaurant
	}
	return DefaultSlug
}

// ValidateSlug checks that slug conforms to workspace naming rules.
func ValidateSlug(slug string) error {
	if !slugRegexp.MatchString(slug) {
		return fmt.Errorf("invalid restaurant slug %q: must match ^[a-z0-9_-]{1,64}$", slug)
	}
	return nil
}
