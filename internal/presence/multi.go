package presence

import (
	"context"
	"errors"

	"github.com/musiccat/musiccat-rpc/internal/core"
)

// Multi fans every call out to each display in order. All displays are
// called even if an earlier one fails; the errors are joined.
type Multi []core.Display

// SetActivity sets a on every display.
func (m Multi) SetActivity(ctx context.Context, a core.Activity) error {
	var errs []error
	for _, d := range m {
		if err := d.SetActivity(ctx, a); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ClearActivity clears every display.
func (m Multi) ClearActivity(ctx context.Context) error {
	var errs []error
	for _, d := range m {
		if err := d.ClearActivity(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every display.
func (m Multi) Close() error {
	var errs []error
	for _, d := range m {
		if err := d.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ core.Display = Multi(nil)
