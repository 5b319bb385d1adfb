package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/preslavrachev/e2eharness/driver"
)

// MessageAction names a message box button; the button id is "<action>Button".
type MessageAction string

const (
	MessageConfirm MessageAction = "confirm"
	MessageCancel  MessageAction = "cancel"
)

// MessageType names a message box; the dialog id is "<type>MessageBox".
type MessageType string

const (
	MessageTypeConfirm MessageType = "confirm"
	MessageTypeError   MessageType = "error"
	MessageTypeInfo    MessageType = "info"
)

const (
	dialogSelector        = `[role="dialog"]`
	dialogContentSelector = "[data-dialog-content]"
	menuItemSelector      = `[role="menuitem"]`
	iconSelector          = "mat-icon"
)

func tableRowsSelector(tableID, ancestor string) string {
	return ancestor + "table" + IDSelector(tableID) + " tbody tr"
}

func dialogByID(dialogID string) string {
	return dialogSelector + "#" + dialogID
}

/********************************
 * ACTIONS
 *******************************/

// ClickElement clicks the enabled button, link, div or card identified by id.
func (h *Harness) ClickElement(ctx context.Context, id string) error {
	el, err := h.locate(ctx, func(ancestor string) (string, error) {
		return clickSelector(id, ancestor)
	})
	if err != nil {
		return err
	}
	return el.Click(ctx)
}

// EnterValue types value into the input or textarea identified by id; an
// empty value clears it. An input event is dispatched afterwards and the
// field is blurred when blur is set.
func (h *Harness) EnterValue(ctx context.Context, id, value string, blur bool) error {
	el, err := h.locate(ctx, tagged(id, inputTags, ""))
	if err != nil {
		return err
	}
	return enter(ctx, el, value, blur)
}

func enter(ctx context.Context, el driver.Element, value string, blur bool) error {
	var err error
	if value != "" {
		err = el.SetValue(ctx, value)
	} else {
		err = el.Clear(ctx)
	}
	if err != nil {
		return err
	}
	if err := el.DispatchEvent(ctx, "input"); err != nil {
		return err
	}
	if blur {
		return el.Blur(ctx)
	}
	return nil
}

// SelectMenuItem clicks the open menu item whose text is text.
func (h *Harness) SelectMenuItem(ctx context.Context, text string) error {
	root, err := h.rootPage()
	if err != nil {
		return err
	}
	items, err := root.FindAll(ctx, menuItemSelector)
	if err != nil {
		return err
	}
	for _, item := range items {
		itemText, err := item.Text(ctx)
		if err != nil {
			return err
		}
		if itemText == text {
			return item.Click(ctx)
		}
	}
	return fmt.Errorf("menu item %q: %w", text, driver.ErrNoElement)
}

// MessageBoxClick clicks the action button of the open message box.
func (h *Harness) MessageBoxClick(ctx context.Context, action MessageAction) error {
	root, err := h.rootPage()
	if err != nil {
		return err
	}
	dialog, err := root.Find(ctx, dialogSelector)
	if err != nil {
		return err
	}
	button, err := dialog.Find(ctx, "button"+IDSelector(string(action)+"Button"))
	if err != nil {
		return err
	}
	return button.Click(ctx)
}

// InDialog returns a harness bound to the open dialog dialogID. Dialogs
// render outside the host, so the root page is required.
func (h *Harness) InDialog(ctx context.Context, dialogID string) (*Harness, error) {
	root, err := h.rootPage()
	if err != nil {
		return nil, err
	}
	if err := ValidateID(dialogID); err != nil {
		return nil, err
	}
	if _, err := root.Find(ctx, dialogByID(dialogID)); err != nil {
		return nil, fmt.Errorf("dialog %s: %w", dialogID, err)
	}
	c := h.copy()
	c.name = dialogID
	c.hostSelector = dialogByID(dialogID)
	c.page = root
	c.scope = scope{}
	c.log = h.log.WithField("dialog", dialogID)
	return c, nil
}

/********************************
 * ASSERTIONS
 *******************************/

// ElementVisible reports whether the element identified by id is rendered
// and neither display:none nor visibility:hidden. A missing element is not
// visible.
func (h *Harness) ElementVisible(ctx context.Context, id string) (bool, error) {
	el, err := h.locateOptional(ctx, tagged(id, visibleTags, ""))
	if err != nil || el == nil {
		return false, err
	}
	display, err := el.CSSValue(ctx, "display")
	if err != nil {
		return false, err
	}
	visibility, err := el.CSSValue(ctx, "visibility")
	if err != nil {
		return false, err
	}
	return display != "none" && visibility != "hidden", nil
}

// ElementText returns the text of the element identified by id.
func (h *Harness) ElementText(ctx context.Context, id string) (string, error) {
	el, err := h.locate(ctx, tagged(id, textTags, ""))
	if err != nil {
		return "", err
	}
	return el.Text(ctx)
}

// ElementHasClass reports whether the toolbar or button identified by id
// carries the CSS class.
func (h *Harness) ElementHasClass(ctx context.Context, id, class string) (bool, error) {
	el, err := h.locate(ctx, tagged(id, classTags, ""))
	if err != nil {
		return false, err
	}
	return el.HasClass(ctx, class)
}

// ButtonText returns the label of the button identified by id without the
// text of its icon.
func (h *Harness) ButtonText(ctx context.Context, id string) (string, error) {
	button, err := h.locate(ctx, tagged(id, disableableTags, ""))
	if err != nil {
		return "", err
	}
	text, err := button.Text(ctx)
	if err != nil {
		return "", err
	}
	icon, err := button.Find(ctx, iconSelector)
	switch {
	case errors.Is(err, driver.ErrNoElement):
		return text, nil
	case err != nil:
		return "", err
	}
	iconText, err := icon.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(strings.Replace(text, iconText, "", 1)), nil
}

// ElementChildCount returns the number of direct children of the container
// identified by id.
func (h *Harness) ElementChildCount(ctx context.Context, id string) (int, error) {
	// the parent must exist, otherwise zero children would be ambiguous
	if _, err := h.locate(ctx, tagged(id, containerTags, "")); err != nil {
		return 0, err
	}
	kids, err := h.locateAll(ctx, tagged(id, containerTags, children))
	if err != nil {
		return 0, err
	}
	return len(kids), nil
}

// ButtonEnabled reports whether the button identified by id is enabled.
func (h *Harness) ButtonEnabled(ctx context.Context, id string) (bool, error) {
	button, err := h.locate(ctx, tagged(id, disableableTags, ""))
	if err != nil {
		return false, err
	}
	disabled, err := button.Property(ctx, "disabled")
	if err != nil {
		return false, err
	}
	return disabled != "true", nil
}

// InputValue returns the current value of the input or textarea identified
// by id.
func (h *Harness) InputValue(ctx context.Context, id string) (string, error) {
	el, err := h.locate(ctx, tagged(id, inputTags, ""))
	if err != nil {
		return "", err
	}
	return el.Property(ctx, "value")
}

// TableRowCount returns the number of body rows of the table identified by
// id.
func (h *Harness) TableRowCount(ctx context.Context, id string) (int, error) {
	// the table must exist, otherwise zero rows would be ambiguous
	if _, err := h.locate(ctx, tagged(id, []string{"table"}, "")); err != nil {
		return 0, err
	}
	rows, err := h.locateAll(ctx, func(ancestor string) (string, error) {
		if err := ValidateID(id); err != nil {
			return "", err
		}
		return tableRowsSelector(id, ancestor), nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// DialogPresent reports whether the dialog dialogID is open.
func (h *Harness) DialogPresent(ctx context.Context, dialogID string) (bool, error) {
	root, err := h.rootPage()
	if err != nil {
		return false, err
	}
	if err := ValidateID(dialogID); err != nil {
		return false, err
	}
	_, err = root.Find(ctx, dialogByID(dialogID))
	if errors.Is(err, driver.ErrNoElement) {
		return false, nil
	}
	return err == nil, err
}

// MessageBoxPresent reports whether a message box of the given type is open.
// When message is not empty the box must also show exactly that message.
func (h *Harness) MessageBoxPresent(ctx context.Context, typ MessageType, message string) (bool, error) {
	root, err := h.rootPage()
	if err != nil {
		return false, err
	}
	box, err := root.Find(ctx, dialogByID(string(typ)+"MessageBox"))
	if errors.Is(err, driver.ErrNoElement) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if message == "" {
		return true, nil
	}
	content, err := box.Find(ctx, dialogContentSelector)
	if errors.Is(err, driver.ErrNoElement) {
		content = box
	} else if err != nil {
		return false, err
	}
	text, err := content.Text(ctx)
	if err != nil {
		return false, err
	}
	return text == message, nil
}
