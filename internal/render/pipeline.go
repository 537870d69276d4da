package render

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog/log"

	"github.com/inkwell-labs/inkwell/internal/geometry"
	"github.com/inkwell-labs/inkwell/internal/model"
)

// Pipeline turns a plugin (or a mashup of plugins) into a full-resolution
// bitmap. Per-item template failures degrade to a labeled fallback fragment;
// only an HTML renderer failure surfaces as an error, and callers answer
// that with a static raster rather than an HTTP failure.
type Pipeline struct {
	templates TemplateRenderer
	html      HTMLRenderer
}

func NewPipeline(templates TemplateRenderer, html HTMLRenderer) *Pipeline {
	return &Pipeline{templates: templates, html: html}
}

// RenderPlugin renders one plugin at the native bitmap size.
func (p *Pipeline) RenderPlugin(ctx context.Context, plugin *model.Plugin) ([]byte, error) {
	fragment := p.renderFragment(ctx, plugin, SizeFull)
	markup := frame(fragment, SizeFull)
	return p.html.Render(ctx, markup, geometry.DefaultWidth, geometry.DefaultHeight)
}

// RenderMashup renders each slot independently and composes the fragments
// into the layout container. A broken slot degrades only its own region.
func (p *Pipeline) RenderMashup(ctx context.Context, m *model.Mashup, plugins []model.Plugin) ([]byte, error) {
	sizes, err := SlotSizes(m.Layout)
	if err != nil {
		return nil, err
	}
	if len(plugins) != len(sizes) {
		return nil, fmt.Errorf("%w: layout %s needs %d, got %d", ErrLayoutMismatch, m.Layout, len(sizes), len(plugins))
	}

	fragments := make([]string, len(plugins))
	for i := range plugins {
		fragments[i] = frame(p.renderFragment(ctx, &plugins[i], sizes[i]), sizes[i])
	}
	markup := composeMashup(m.Layout, fragments)
	return p.html.Render(ctx, markup, geometry.DefaultWidth, geometry.DefaultHeight)
}

// renderFragment resolves the plugin's template and renders it through the
// template service. Any failure yields the labeled fallback fragment naming
// the plugin.
func (p *Pipeline) renderFragment(ctx context.Context, plugin *model.Plugin, size Size) string {
	tmpl := resolveTemplate(plugin, size)
	if tmpl == "" {
		return fallbackFragment(plugin.Name, "no template configured")
	}

	data := make(map[string]any, len(plugin.Config)+len(plugin.Data))
	for k, v := range plugin.Config {
		data[k] = v
	}
	for k, v := range plugin.Data {
		data[k] = v
	}

	markup, err := p.templates.Render(ctx, tmpl, data)
	if err != nil {
		var terr *TemplateError
		if errors.As(err, &terr) {
			log.Warn().Str("plugin", plugin.Name).Str("template_error", terr.Message).Msg("template failed, using fallback fragment")
		} else {
			log.Error().Err(err).Str("plugin", plugin.Name).Msg("template service failed, using fallback fragment")
		}
		return fallbackFragment(plugin.Name, err.Error())
	}
	return markup
}

// resolveTemplate picks between the two markup dialects: the shared dialect
// serves reduced-size mashup slots when present.
func resolveTemplate(plugin *model.Plugin, size Size) string {
	if size != SizeFull && plugin.MarkupShared != nil && *plugin.MarkupShared != "" {
		return *plugin.MarkupShared
	}
	if plugin.Markup != nil {
		return *plugin.Markup
	}
	if plugin.MarkupShared != nil {
		return *plugin.MarkupShared
	}
	return ""
}

// frame wraps a fragment in the standard frame container.
func frame(fragment string, size Size) string {
	return `<div class="frame frame--` + string(size) + `">` + fragment + `</div>`
}

// fallbackFragment is the labeled stand-in for a content unit that could not
// be rendered.
func fallbackFragment(name, reason string) string {
	return `<div class="frame__fallback"><span class="frame__fallback-name">` +
		html.EscapeString(name) +
		`</span><span class="frame__fallback-reason">` +
		html.EscapeString(reason) +
		`</span></div>`
}
