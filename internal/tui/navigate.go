package tui

import (
	"fmt"
	"io"
	"net/url"

	"github.com/pkg/browser"

	"partchat/internal/events"
	"partchat/internal/render"
)

func init() {
	// The opener's own output would tear the alt screen.
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
}

// BrowserNavigator opens http(s) links with the desktop's URL handler.
type BrowserNavigator struct{}

func (BrowserNavigator) Navigate(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("refusing to open %q", raw)
	}
	return browser.OpenURL(u.String())
}

// AlertNavigator surfaces the URL as an info alert instead of opening it.
// Headless and smoke runs use it.
func AlertNavigator(a *events.Alerts) render.Navigator {
	return render.NavigatorFunc(func(u string) error {
		a.Raise(events.SeverityInfo, "link.opened", "Open "+u, map[string]any{"url": u})
		return nil
	})
}
