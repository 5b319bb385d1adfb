package harness

import (
	"fmt"
	"regexp"
	"strings"
)

// IDAttribute is the attribute carrying element identifiers.
const IDAttribute = "data-id"

// HostAttribute marks the container element a harness is bound to.
const HostAttribute = "data-host"

var validID = regexp.MustCompile(`^[A-Za-z0-9_\-.:]+$`)

// Tag sets for the element lookups. The same logical element may render as
// any of these tags depending on where it is used.
var (
	clickableTags   = []string{"a", "div", "mat-card"}
	disableableTags = []string{"button"}
	visibleTags     = []string{"h1", "p", "div", "button", "a", "td", "mat-error", "mat-card"}
	textTags        = []string{"h1", "h4", "p", "div", "span", "button", "td", "mat-icon"}
	classTags       = []string{"mat-toolbar", "button"}
	containerTags   = []string{"div", "mat-dialog-actions"}
	inputTags       = []string{"input", "textarea"}
	blockTags       = []string{"div"}
)

const (
	notDisabled = ":not([disabled])"
	notBusy     = `:not([data-busy="true"])`
	children    = " > *"
)

// ValidateID checks that id can be interpolated into an attribute selector.
func ValidateID(id string) error {
	if !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}

// IDSelector returns the attribute selector for id.
func IDSelector(id string) string {
	return fmt.Sprintf(`[%s="%s"]`, IDAttribute, id)
}

// HostSelector returns the selector of the container rendered for host.
func HostSelector(host string) string {
	return fmt.Sprintf(`[%s="%s"]`, HostAttribute, host)
}

// BuildSelector joins one sub-selector per tag, each of the form
// <ancestor><tag>[data-id="<id>"]<suffix>.
func BuildSelector(id string, tags []string, ancestor, suffix string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, ancestor+tag+IDSelector(id)+suffix)
	}
	return strings.Join(parts, ","), nil
}

// clickSelector matches enabled buttons and any of the regular clickable tags.
func clickSelector(id, ancestor string) (string, error) {
	disableable, err := BuildSelector(id, disableableTags, ancestor, notDisabled)
	if err != nil {
		return "", err
	}
	regular, err := BuildSelector(id, clickableTags, ancestor, "")
	if err != nil {
		return "", err
	}
	return disableable + "," + regular, nil
}
