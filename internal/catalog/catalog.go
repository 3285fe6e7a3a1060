// Package catalog supplies the quick actions offered before the first user
// turn, either the built-in set or one read from a YAML file.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"partchat/internal/chat"
)

type file struct {
	QuickActions []chat.QuickAction `yaml:"quick_actions" validate:"required,min=1,dive"`
}

var validate = validator.New()

// Defaults returns the built-in quick actions. The last one has no starter
// text, so choosing it sends its label straight to the assistant.
func Defaults() []chat.QuickAction {
	return []chat.QuickAction{
		{
			ID:          "find-part",
			Label:       "Find a part",
			StarterText: "Sure. Tell me the part number, or describe the part and your appliance.",
			Examples: []string{
				"I need a door shelf bin for my Whirlpool fridge",
				"Tell me about part PS11752778",
			},
		},
		{
			ID:          "compatibility",
			Label:       "Check compatibility",
			StarterText: "Happy to check. Which part and which appliance model number?",
			Examples: []string{
				"Is PS11752778 compatible with WDT780SAEM1?",
				"Will this rack wheel fit my Kenmore dishwasher?",
			},
		},
		{
			ID:          "repair",
			Label:       "Repair help",
			StarterText: "What is the appliance doing? Describe the symptom and I'll suggest likely parts.",
			Examples: []string{
				"The ice maker on my Whirlpool fridge is not working",
				"My dishwasher is leaking from the door",
			},
		},
		{
			ID:    "order-status",
			Label: "Check my order status",
		},
	}
}

// Load returns Defaults when path is empty, otherwise the actions in the file.
func Load(path string) ([]chat.QuickAction, error) {
	if strings.TrimSpace(path) == "" {
		return Defaults(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	actions, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return actions, nil
}

func Parse(raw []byte) ([]chat.QuickAction, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	for i := range f.QuickActions {
		a := &f.QuickActions[i]
		a.ID = strings.TrimSpace(a.ID)
		a.Label = strings.TrimSpace(a.Label)
		a.StarterText = strings.TrimSpace(a.StarterText)
	}
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, fmt.Errorf("invalid %s (%s)", fe.Namespace(), fe.Tag())
		}
		return nil, err
	}
	seen := make(map[string]struct{}, len(f.QuickActions))
	for _, a := range f.QuickActions {
		if _, dup := seen[a.ID]; dup {
			return nil, fmt.Errorf("duplicate quick action id %q", a.ID)
		}
		seen[a.ID] = struct{}{}
	}
	return f.QuickActions, nil
}
