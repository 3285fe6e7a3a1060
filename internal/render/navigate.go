package render

import (
	"errors"
	"strings"
)

// Navigator opens an outbound URL. It never touches the conversation.
type Navigator interface {
	Navigate(url string) error
}

type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error { return f(url) }

var ErrNoNavigator = errors.New("render: no navigator for outbound link")

// Dispatch routes an activated action. Navigation goes to nav; a prompt is
// handed to send, which is expected to enter the send pipeline.
func Dispatch(a Action, nav Navigator, send func(text string)) error {
	switch a.Kind {
	case ActionNavigate:
		if nav == nil {
			return ErrNoNavigator
		}
		return nav.Navigate(a.URL)
	case ActionPrompt:
		if send != nil && strings.TrimSpace(a.Prompt) != "" {
			send(a.Prompt)
		}
		return nil
	default:
		return nil
	}
}
