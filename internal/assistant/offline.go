package assistant

import (
	"context"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"partchat/internal/chat"
)

var (
	partIDPattern  = regexp.MustCompile(`(?i)\bPS\d{4,}\b`)
	orderIDPattern = regexp.MustCompile(`(?i)\border\s*#?\s*(\d+)\b`)
)

// Offline answers without a network. It is used for smoke runs and when
// PARTCHAT_DISABLE_NETWORK is set: part numbers come back as a product card,
// order numbers as an order card, anything else as an echo.
type Offline struct{}

func (Offline) Chat(ctx context.Context, r chat.Request) (chat.Reply, error) {
	if err := ctx.Err(); err != nil {
		return chat.Reply{}, err
	}
	msg := strings.TrimSpace(r.Message)

	if id := partIDPattern.FindString(msg); id != "" {
		id = strings.ToUpper(id)
		price := decimal.RequireFromString("29.99")
		return chat.Reply{
			Text: "Here is what I found for part " + id + ".",
			Metadata: chat.ProductInfo{Product: chat.Product{
				ID:            id,
				Name:          "Replacement part " + id,
				Price:         &price,
				URL:           "https://www.partselect.com/" + id + ".htm",
				ApplianceType: "Refrigerator",
			}},
		}, nil
	}
	if m := orderIDPattern.FindStringSubmatch(msg); m != nil {
		return chat.Reply{
			Text: "Order #" + m[1] + " is on its way.",
			Metadata: chat.OrderInfo{Order: chat.Order{
				ID:             m[1],
				Status:         "Shipped - In Transit",
				ShippingType:   "Standard",
				ReturnEligible: true,
			}},
		}, nil
	}
	return chat.Reply{Text: "(offline) You asked: " + msg}, nil
}

func (Offline) Health(context.Context) error { return nil }
