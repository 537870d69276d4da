package render

import (
	"errors"
	"fmt"
	"strings"
)

// Size parameterizes how much room a fragment gets inside a frame.
type Size string

const (
	SizeFull     Size = "full"
	SizeHalfH    Size = "half_horizontal"
	SizeHalfV    Size = "half_vertical"
	SizeQuadrant Size = "quadrant"
)

// Mashup layouts. Each implies a fixed slot count and per-slot sizes.
const (
	LayoutSingle    = "single"
	LayoutSplitH    = "split_horizontal" // top / bottom
	LayoutSplitV    = "split_vertical"   // left / right
	LayoutMainTop   = "main_top"         // wide main over two quadrants
	LayoutMainLeft  = "main_left"        // tall main beside two quadrants
	LayoutQuadrant  = "quadrant"
)

// ErrLayoutMismatch is a configuration error: the number of slots does not
// match the layout. It is surfaced at mashup creation time and never during
// device polling.
var ErrLayoutMismatch = errors.New("mashup slot count does not match layout")

var layoutSlots = map[string][]Size{
	LayoutSingle:   {SizeFull},
	LayoutSplitH:   {SizeHalfH, SizeHalfH},
	LayoutSplitV:   {SizeHalfV, SizeHalfV},
	LayoutMainTop:  {SizeHalfH, SizeQuadrant, SizeQuadrant},
	LayoutMainLeft: {SizeHalfV, SizeQuadrant, SizeQuadrant},
	LayoutQuadrant: {SizeQuadrant, SizeQuadrant, SizeQuadrant, SizeQuadrant},
}

// SlotCount returns the required sub-item count for a layout.
func SlotCount(layout string) (int, error) {
	slots, ok := layoutSlots[layout]
	if !ok {
		return 0, fmt.Errorf("unknown mashup layout %q", layout)
	}
	return len(slots), nil
}

// SlotSizes returns the per-slot size parameters for a layout.
func SlotSizes(layout string) ([]Size, error) {
	slots, ok := layoutSlots[layout]
	if !ok {
		return nil, fmt.Errorf("unknown mashup layout %q", layout)
	}
	return slots, nil
}

// ValidateLayout checks a layout/slot-count pair at configuration time.
func ValidateLayout(layout string, slotCount int) error {
	want, err := SlotCount(layout)
	if err != nil {
		return err
	}
	if slotCount != want {
		return fmt.Errorf("%w: layout %s needs %d, got %d", ErrLayoutMismatch, layout, want, slotCount)
	}
	return nil
}

// composeMashup places rendered fragments into the fixed container for the
// layout. Fragments arrive in slot order.
func composeMashup(layout string, fragments []string) string {
	var b strings.Builder
	b.WriteString(`<div class="mashup mashup--` + layout + `">`)
	switch layout {
	case LayoutMainTop:
		b.WriteString(`<div class="mashup__main">` + fragments[0] + `</div>`)
		b.WriteString(`<div class="mashup__row">`)
		b.WriteString(`<div class="mashup__cell">` + fragments[1] + `</div>`)
		b.WriteString(`<div class="mashup__cell">` + fragments[2] + `</div>`)
		b.WriteString(`</div>`)
	case LayoutMainLeft:
		b.WriteString(`<div class="mashup__main">` + fragments[0] + `</div>`)
		b.WriteString(`<div class="mashup__col">`)
		b.WriteString(`<div class="mashup__cell">` + fragments[1] + `</div>`)
		b.WriteString(`<div class="mashup__cell">` + fragments[2] + `</div>`)
		b.WriteString(`</div>`)
	default:
		for _, f := range fragments {
			b.WriteString(`<div class="mashup__cell">` + f + `</div>`)
		}
	}
	b.WriteString(`</div>`)
	return b.String()
}
