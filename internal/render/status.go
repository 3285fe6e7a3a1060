package render

import "strings"

type StatusClass int

const (
	StatusPending StatusClass = iota
	StatusDelivered
	StatusShipped
	StatusCancelled
)

func (c StatusClass) String() string {
	switch c {
	case StatusDelivered:
		return "delivered"
	case StatusShipped:
		return "shipped"
	case StatusCancelled:
		return "cancelled"
	default:
		return "pending"
	}
}

// Order matters: the first rule whose keyword appears in the status wins.
var statusRules = []struct {
	keywords []string
	class    StatusClass
}{
	{[]string{"delivered", "completed"}, StatusDelivered},
	{[]string{"shipped", "processing"}, StatusShipped},
	{[]string{"cancelled", "returned"}, StatusCancelled},
}

// ClassifyStatus maps a free-text order status to its display class.
func ClassifyStatus(status string) StatusClass {
	s := strings.ToLower(status)
	for _, rule := range statusRules {
		for _, kw := range rule.keywords {
			if strings.Contains(s, kw) {
				return rule.class
			}
		}
	}
	return StatusPending
}
