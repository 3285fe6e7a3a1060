package chat

// Suggestions tracks the two layers of canned prompts: top-level quick
// actions, and the example phrasings of the action last chosen.
type Suggestions struct {
	actions        []QuickAction
	dismissed      bool
	activeExamples []string
}

func NewSuggestions(actions []QuickAction) Suggestions {
	return Suggestions{actions: append([]QuickAction(nil), actions...)}
}

func (s Suggestions) Actions() []QuickAction {
	return append([]QuickAction(nil), s.actions...)
}

func (s Suggestions) Find(id string) (QuickAction, bool) {
	for _, a := range s.actions {
		if a.ID == id {
			return a, true
		}
	}
	return QuickAction{}, false
}

// QuickActionsVisible reports whether the top-level actions should show.
// Once dismissed they stay hidden for the session; a user turn in the log
// hides them regardless.
func (s Suggestions) QuickActionsVisible(hasUserTurn bool) bool {
	return !s.dismissed && !hasUserTurn
}

func (s Suggestions) ActiveExamples() []string {
	return append([]string(nil), s.activeExamples...)
}

// Choose records a starter-text selection.
func (s Suggestions) Choose(a QuickAction) Suggestions {
	s.dismissed = true
	s.activeExamples = append([]string(nil), a.Examples...)
	return s
}

// Sent records a successful entry into the send pipeline.
func (s Suggestions) Sent() Suggestions {
	s.dismissed = true
	s.activeExamples = nil
	return s
}
