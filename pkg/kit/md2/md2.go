// Package md2 provides Material Design 2 components as kit tags.
//
//	lib := kit.NewLibrary()
//	if err := md2.Register(lib); err != nil { ... }
//	tpl, err := lib.Parse("page", `{{template "neom_md2_style" .}}{{neom_md2_button_text "Save"}}`)
package md2

import (
	"embed"
	"html/template"
	"net/url"
	"strings"

	"neom/pkg/kit"
)

//go:embed assets/web.css assets/web.js
var assets embed.FS

// Tag names.
const (
	Style                = "neom_md2_style"
	StyleScript          = "neom_md2_style_script"
	Icons                = "neom_md2_icons"
	ButtonText           = "neom_md2_button_text"
	ButtonOutlined       = "neom_md2_button_outlined"
	ButtonContained      = "neom_md2_button_contained"
	CardElevated         = "neom_md2_card_elevated"
	CardOutlined         = "neom_md2_card_outlined"
	CardActions          = "neom_md2_card_actions"
	CardActionsFullBleed = "neom_md2_card_actions_full_bleed"
	CardActionButton     = "neom_md2_card_action_button"
	CardActionLink       = "neom_md2_card_action_link"
)

const iconsFont = "https://fonts.googleapis.com/icon?family=Material+Icons"

// Components renders md2 markup with class names taken from Tokens.
type Components struct {
	t kit.Tokens
}

func New(t kit.Tokens) Components { return Components{t: t} }

// Register installs every md2 tag into lib, using lib's tokens.
func Register(lib *kit.Library) error {
	css, err := assets.ReadFile("assets/web.css")
	if err != nil {
		return err
	}
	js, err := assets.ReadFile("assets/web.js")
	if err != nil {
		return err
	}

	c := New(lib.Tokens())
	singles := map[string]any{
		Icons:            c.Icons,
		ButtonText:       c.ButtonText,
		ButtonOutlined:   c.ButtonOutlined,
		ButtonContained:  c.ButtonContained,
		CardActionButton: c.CardActionButton,
		CardActionLink:   c.CardActionLink,
	}
	for name, fn := range singles {
		if err := lib.SingleTag(name, fn); err != nil {
			return err
		}
	}
	composes := map[string]any{
		CardElevated:         c.CardElevated,
		CardOutlined:         c.CardOutlined,
		CardActions:          c.CardActions,
		CardActionsFullBleed: c.CardActionsFullBleed,
	}
	for name, fn := range composes {
		if err := lib.ComposeTag(name, fn); err != nil {
			return err
		}
	}

	if err := lib.DirectTag(Style, func() string {
		return "<style>" + string(css) + "</style>"
	}); err != nil {
		return err
	}
	return lib.DirectTag(StyleScript, func() string {
		return "<style>" + string(css) + "</style><script>" + string(js) + "</script>"
	})
}

func (c Components) Icons() string {
	return `<style>@import url("` + iconsFont + `");.` + c.t.Key("material-icons") +
		`{font-family:'Material Icons';font-weight:normal;font-style:normal;font-size:24px;line-height:1;` +
		`letter-spacing:normal;text-transform:none;display:inline-block;white-space:nowrap;word-wrap:normal;` +
		`direction:ltr;-webkit-font-feature-settings:'liga';-webkit-font-smoothing:antialiased}</style>`
}

func (c Components) ButtonText(label string) string {
	return `<button class="` + c.t.Key("mdc-button") + `">` +
		`<span class="` + c.t.Key("mdc-button__ripple") + `"></span>` +
		c.label(label) +
		`</button>`
}

func (c Components) ButtonOutlined(label string) string {
	return `<button class="` + c.t.Classes("mdc-button", "mdc-button--outlined") + `">` +
		`<span class="` + c.t.Key("mdc-button__ripple") + `"></span>` +
		c.label(label) +
		`</button>`
}

// ButtonContained has no ripple surface.
func (c Components) ButtonContained(label string) string {
	return `<button class="` + c.t.Classes("mdc-button", "mdc-button--raised") + `">` +
		c.label(label) +
		`</button>`
}

func (c Components) CardElevated() (string, string) {
	return `<div class="` + c.t.Key("mdc-card") + `">`, `</div>`
}

func (c Components) CardOutlined() (string, string) {
	return `<div class="` + c.t.Classes("mdc-card", "mdc-card--outlined") + `">`, `</div>`
}

func (c Components) CardActions() (string, string) {
	return `<div class="` + c.t.Key("mdc-card__actions") + `">`, `</div>`
}

func (c Components) CardActionsFullBleed() (string, string) {
	return `<div class="` + c.t.Classes("mdc-card__actions", "mdc-card__actions--full-bleed") + `">`, `</div>`
}

func (c Components) CardActionButton(label string) string {
	return `<button class="` + c.actionClasses() + `">` + c.ripple() + c.label(label) + `</button>`
}

func (c Components) CardActionLink(label, link string) string {
	return `<a class="` + c.actionClasses() + `" href="` + template.HTMLEscapeString(safeHref(link)) + `">` +
		c.ripple() + c.label(label) + `</a>`
}

// unsafeHref replaces links whose scheme is not allowed, as html/template
// does for URLs it cannot trust.
const unsafeHref = "#ZgotmplZ"

// safeHref passes relative, http, https and mailto links and replaces the rest.
func safeHref(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return unsafeHref
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto":
		return link
	}
	return unsafeHref
}

func (c Components) actionClasses() string {
	return c.t.Classes("mdc-button", "mdc-card__action", "mdc-card__action--button")
}

func (c Components) ripple() string {
	return `<div class="` + c.t.Key("mdc-button__ripple") + `"></div>`
}

func (c Components) label(label string) string {
	return `<span class="` + c.t.Key("mdc-button__label") + `">` + template.HTMLEscapeString(label) + `</span>`
}
