// Package views holds the templ components of the experiment screens.
package views

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// printer collects the first write error so components can write freely.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) raw(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// text writes s HTML-escaped.
func (p *printer) text(s string) {
	p.raw("%s", templ.EscapeString(s))
}

func (p *printer) csrf(token string) {
	p.raw(`<input type="hidden" name="_csrf" value="%s">`, templ.EscapeString(token))
}

// refresh reloads path once d has passed. Pages with a pending timeout use
// it to pick up what the server decided meanwhile.
func (p *printer) refresh(d time.Duration, path string) {
	if d <= 0 {
		return
	}
	secs := int(d.Seconds() + 0.999)
	if secs < 1 {
		secs = 1
	}
	p.raw(`<meta http-equiv="refresh" content="%d;url=%s">`, secs, templ.EscapeString(path))
}

func (p *printer) child(ctx context.Context, c templ.Component) {
	if p.err != nil || c == nil {
		return
	}
	p.err = c.Render(ctx, p.w)
}

// Layout wraps a screen. Children are rendered inside <main>.
func Layout(title string, experimenter bool, csrfToken, nonce string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`)
		p.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		p.raw(`<meta name="csrf-token" content="%s">`, templ.EscapeString(csrfToken))
		p.raw(`<title>`)
		p.text(title)
		p.raw(`</title><link rel="stylesheet" href="/assets/css/experiment.css"></head><body>`)
		if experimenter {
			p.raw(`<nav class="experimenter"><a href="/">Subject entry</a> <a href="/report">Report</a>`)
			p.raw(`<form method="post" action="/experimenter/logout" class="inline">`)
			p.csrf(csrfToken)
			p.raw(`<button type="submit">Log out</button></form></nav>`)
		}
		p.raw(`<main>`)
		p.child(ctx, templ.GetChildren(ctx))
		p.raw(`</main>`)
		// Keys 1-5 and the arrow keys press the button carrying a matching data-key.
		p.raw(`<script nonce="%s">document.addEventListener('keydown',function(e){var b=document.querySelector('[data-key="'+e.key+'"]');if(b){e.preventDefault();b.click();}});</script>`, templ.EscapeString(nonce))
		p.raw(`</body></html>`)
		return p.err
	})
}

// Message renders a single paragraph, used for degraded screens.
func Message(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		p := &printer{w: w}
		p.raw(`<p class="message">`)
		p.text(text)
		p.raw(`</p>`)
		return p.err
	})
}
