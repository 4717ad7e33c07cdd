// Package gallery holds the per-property active-image cursor for the detail
// view.
package gallery

// Cursor is an index into a property's media sequence, clamped to the valid
// range. The zero value (index 0, no media) is ready to use; mounting a new
// property resets the cursor before any render, so it can never dereference
// another property's media out of bounds.
type Cursor struct {
	index int
	count int
}

// NewCursor returns a cursor for a media sequence of the given length,
// positioned at the first image.
func NewCursor(mediaCount int) Cursor {
	if mediaCount < 0 {
		mediaCount = 0
	}
	return Cursor{count: mediaCount}
}

// Index returns the active image index.
func (c Cursor) Index() int { return c.index }

// Count returns the media sequence length the cursor was mounted with.
func (c Cursor) Count() int { return c.count }

// Select moves the cursor to index, ignoring out-of-bounds values.
// Stale thumbnail clicks after the media list changed are therefore no-ops.
func (c Cursor) Select(index int) Cursor {
	if index < 0 || index >= c.count {
		return c
	}
	c.index = index
	return c
}

// Next advances to the next image, stopping at the end.
func (c Cursor) Next() Cursor { return c.Select(c.index + 1) }

// Prev moves to the previous image, stopping at the start.
func (c Cursor) Prev() Cursor { return c.Select(c.index - 1) }
