package harness

import (
	"context"
	"fmt"

	"github.com/preslavrachev/e2eharness/driver"
)

// The waiting operations are meant for applications whose state changes
// outside anything the test can subscribe to: they poll the visual
// indication of an operation's completion (busy markers, elements appearing
// or disappearing) until it shows up or the wait policy times out.

// Click waits for the enabled clickable element identified by id and clicks
// it. The row scope, if any, is resolved again on every attempt.
func (h *Harness) Click(ctx context.Context, id string) error {
	_, err := Poll(ctx, h.waiter(),
		func(ctx context.Context) (driver.Element, bool, error) {
			el, err := h.locate(ctx, func(ancestor string) (string, error) {
				return clickSelector(id, ancestor)
			})
			return el, err == nil, err
		},
		func(ctx context.Context, el driver.Element) error {
			return el.Click(ctx)
		},
		fmt.Sprintf("Clicking element %s failed: timeout exceeded, but element is still not clickable.", id))
	return err
}

// Enter waits for the input identified by id and enters value into it.
func (h *Harness) Enter(ctx context.Context, id, value string) error {
	_, err := Poll(ctx, h.waiter(),
		func(ctx context.Context) (driver.Element, bool, error) {
			el, err := h.locate(ctx, tagged(id, inputTags, ""))
			return el, err == nil, err
		},
		func(ctx context.Context, el driver.Element) error {
			return enter(ctx, el, value, true)
		},
		fmt.Sprintf("Entering value into element %s failed: timeout exceeded, but element is still not present.", id))
	return err
}

// ExpectElementFree waits until the div identified by id is no longer marked
// busy (data-busy="true").
func (h *Harness) ExpectElementFree(ctx context.Context, id string) error {
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		el, err := h.locateOptional(ctx, tagged(id, blockTags, notBusy))
		return el != nil, err
	}, fmt.Sprintf("Waiting for element %s becoming free failed: timeout exceeded, but element is still busy.", id))
}

// ExpectElementPresent waits until the div identified by id is present, or
// absent when present is false.
func (h *Harness) ExpectElementPresent(ctx context.Context, id string, present bool) error {
	message := fmt.Sprintf("Waiting for element %s being present failed: timeout exceeded, but element is still not present.", id)
	if !present {
		message = fmt.Sprintf("Waiting for element %s not being present failed: timeout exceeded, but element is still present.", id)
	}
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		el, err := h.locateOptional(ctx, tagged(id, blockTags, ""))
		return (el != nil) == present, err
	}, message)
}

// ExpectElementVisible waits until ElementVisible reports visible.
func (h *Harness) ExpectElementVisible(ctx context.Context, id string, visible bool) error {
	message := fmt.Sprintf("Waiting for element %s being visible failed: timeout exceeded, but element is still not visible.", id)
	if !visible {
		message = fmt.Sprintf("Waiting for element %s being hidden failed: timeout exceeded, but element is still visible.", id)
	}
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		got, err := h.ElementVisible(ctx, id)
		return got == visible, err
	}, message)
}

// ExpectElementText waits until the element identified by id shows text.
func (h *Harness) ExpectElementText(ctx context.Context, id, text string) error {
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		got, err := h.ElementText(ctx, id)
		return got == text, err
	}, fmt.Sprintf("Waiting for element %s having text %q failed: timeout exceeded, but text is still different.", id, text))
}

// ExpectTableRowCount waits until the table identified by id has n body rows.
func (h *Harness) ExpectTableRowCount(ctx context.Context, id string, n int) error {
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		got, err := h.TableRowCount(ctx, id)
		return got == n, err
	}, fmt.Sprintf("Waiting for table %s having %d rows failed: timeout exceeded, but row count is still different.", id, n))
}

// ExpectMessageBox waits until a message box of the given type (and message,
// when not empty) is open.
func (h *Harness) ExpectMessageBox(ctx context.Context, typ MessageType, message string) error {
	if _, err := h.rootPage(); err != nil {
		return err
	}
	return Until(ctx, h.waiter(), func(ctx context.Context) (bool, error) {
		return h.MessageBoxPresent(ctx, typ, message)
	}, fmt.Sprintf("Waiting for %s message box failed: timeout exceeded, but message box is still not open.", typ))
}

// Until polls condition with the harness wait policy, for waits the element
// operations do not cover.
func (h *Harness) Until(ctx context.Context, condition func(ctx context.Context) (bool, error), message string) error {
	return Until(ctx, h.waiter(), condition, message)
}
