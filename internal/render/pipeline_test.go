package render

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-labs/inkwell/internal/model"
)

func strPtr(s string) *string { return &s }

// fakeTemplates renders templates by echoing them, failing those listed in
// bad with a structured template error.
type fakeTemplates struct {
	bad map[string]string
}

func (f *fakeTemplates) Render(_ context.Context, tmpl string, _ map[string]any) (string, error) {
	if msg, ok := f.bad[tmpl]; ok {
		return "", &TemplateError{Message: msg}
	}
	return "<p>" + tmpl + "</p>", nil
}

// fakeHTML records the markup it was asked to render.
type fakeHTML struct {
	lastMarkup string
	fail       bool
}

func (f *fakeHTML) Render(_ context.Context, markup string, w, h int) ([]byte, error) {
	if f.fail {
		return nil, ErrRenderFailed
	}
	f.lastMarkup = markup
	return []byte("bitmap:" + markup), nil
}

func TestSlotCounts(t *testing.T) {
	for layout, want := range map[string]int{
		LayoutSingle: 1, LayoutSplitH: 2, LayoutSplitV: 2,
		LayoutMainTop: 3, LayoutMainLeft: 3, LayoutQuadrant: 4,
	} {
		n, err := SlotCount(layout)
		require.NoError(t, err)
		assert.Equal(t, want, n, layout)
	}
	_, err := SlotCount("diagonal")
	assert.Error(t, err)
}

func TestValidateLayout(t *testing.T) {
	assert.NoError(t, ValidateLayout(LayoutSplitV, 2))
	assert.ErrorIs(t, ValidateLayout(LayoutSplitV, 3), ErrLayoutMismatch)
	assert.Error(t, ValidateLayout("bogus", 1))
}

func TestRenderPluginSuccess(t *testing.T) {
	p := NewPipeline(&fakeTemplates{}, &fakeHTML{})
	plugin := &model.Plugin{Name: "clock", Markup: strPtr("tick")}

	bmp, err := p.RenderPlugin(context.Background(), plugin)
	require.NoError(t, err)
	assert.Contains(t, string(bmp), "tick")
	assert.Contains(t, string(bmp), "frame--full")
}

func TestRenderPluginTemplateErrorFallsBack(t *testing.T) {
	templates := &fakeTemplates{bad: map[string]string{"broken": "unknown tag 'endfr'"}}
	htmlr := &fakeHTML{}
	p := NewPipeline(templates, htmlr)
	plugin := &model.Plugin{Name: "calendar", Markup: strPtr("broken")}

	bmp, err := p.RenderPlugin(context.Background(), plugin)
	require.NoError(t, err, "template failure must not fail the render")
	assert.Contains(t, string(bmp), "calendar", "fallback frame names the failing unit")
	assert.Contains(t, htmlr.lastMarkup, "frame__fallback")
}

func TestRenderPluginRendererDownPropagates(t *testing.T) {
	p := NewPipeline(&fakeTemplates{}, &fakeHTML{fail: true})
	plugin := &model.Plugin{Name: "clock", Markup: strPtr("tick")}

	_, err := p.RenderPlugin(context.Background(), plugin)
	assert.ErrorIs(t, err, ErrRenderFailed)
}

func TestRenderMashupIsolatesBrokenSlot(t *testing.T) {
	templates := &fakeTemplates{bad: map[string]string{"broken": "missing variable"}}
	htmlr := &fakeHTML{}
	p := NewPipeline(templates, htmlr)

	m := &model.Mashup{Layout: LayoutSplitV}
	plugins := []model.Plugin{
		{Name: "weather", Markup: strPtr("sunny")},
		{Name: "news", Markup: strPtr("broken")},
	}

	bmp, err := p.RenderMashup(context.Background(), m, plugins)
	require.NoError(t, err, "one broken slot must not abort the composite")
	assert.Contains(t, htmlr.lastMarkup, "sunny", "healthy slot rendered")
	assert.Contains(t, htmlr.lastMarkup, "news", "broken slot labeled with its unit name")
	assert.Contains(t, htmlr.lastMarkup, "frame__fallback")
	assert.Equal(t, 2, strings.Count(htmlr.lastMarkup, "mashup__cell"))
	assert.NotEmpty(t, bmp)
}

func TestRenderMashupSlotMismatch(t *testing.T) {
	p := NewPipeline(&fakeTemplates{}, &fakeHTML{})
	m := &model.Mashup{Layout: LayoutQuadrant}
	_, err := p.RenderMashup(context.Background(), m, []model.Plugin{{Name: "only"}})
	assert.ErrorIs(t, err, ErrLayoutMismatch)
}

func TestSharedDialectUsedForReducedSlots(t *testing.T) {
	templates := &fakeTemplates{}
	htmlr := &fakeHTML{}
	p := NewPipeline(templates, htmlr)

	m := &model.Mashup{Layout: LayoutSplitH}
	plugins := []model.Plugin{
		{Name: "a", Markup: strPtr("full-a"), MarkupShared: strPtr("shared-a")},
		{Name: "b", Markup: strPtr("full-b")},
	}

	_, err := p.RenderMashup(context.Background(), m, plugins)
	require.NoError(t, err)
	assert.Contains(t, htmlr.lastMarkup, "shared-a", "shared dialect wins in reduced slots")
	assert.NotContains(t, htmlr.lastMarkup, "full-a")
	assert.Contains(t, htmlr.lastMarkup, "full-b", "plugins without a shared dialect fall back to markup")
}

func TestRenderMashupRendererDown(t *testing.T) {
	p := NewPipeline(&fakeTemplates{}, &fakeHTML{fail: true})
	m := &model.Mashup{Layout: LayoutSingle}
	_, err := p.RenderMashup(context.Background(), m, []model.Plugin{{Name: "solo", Markup: strPtr("x")}})
	assert.True(t, errors.Is(err, ErrRenderFailed))
}
