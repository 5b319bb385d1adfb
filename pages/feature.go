package pages

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/preslavrachev/e2eharness/driver"
)

const featureFlagsSelector = `meta[name="feature-flags"]`

// FeatureActive reports whether the comma separated flag list the app
// renders into its feature-flags meta tag contains name. A page without the
// tag has no active features.
func FeatureActive(ctx context.Context, page driver.Page, name string) (bool, error) {
	meta, err := page.Find(ctx, featureFlagsSelector)
	if errors.Is(err, driver.ErrNoElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	content, err := meta.Attribute(ctx, "content")
	if err != nil {
		return false, err
	}
	flags := strings.Split(content, ",")
	for i := range flags {
		flags[i] = strings.TrimSpace(flags[i])
	}
	return slices.Contains(flags, name), nil
}
