// Package render maps a conversation turn to a presentation-neutral view: the
// turn's paragraphs plus at most one card built from its metadata.
package render

import (
	"fmt"
	"strings"

	"partchat/internal/chat"
)

// DefaultReturnURL is the store's returns page.
const DefaultReturnURL = "https://www.partselect.com/365-Day-Returns.htm"

type CardKind string

const (
	CardProduct CardKind = "product"
	CardOrder   CardKind = "order"
	CardLinks   CardKind = "links"
)

type ActionKind int

const (
	// ActionNavigate opens URL outside the widget.
	ActionNavigate ActionKind = iota
	// ActionPrompt sends Prompt as if the user had typed it.
	ActionPrompt
)

func (k ActionKind) String() string {
	if k == ActionPrompt {
		return "prompt"
	}
	return "navigate"
}

type Action struct {
	Kind   ActionKind
	Label  string
	URL    string
	Prompt string
}

type Field struct {
	Label string
	Value string
}

type Badge struct {
	Text  string
	Class StatusClass
}

type Card struct {
	Kind     CardKind
	Title    string
	Subtitle string
	Fields   []Field
	Badge    *Badge
	Actions  []Action
}

type View struct {
	Paragraphs []string
	Card       *Card
}

type Option func(*Renderer)

// WithReturnURL overrides the "Return order" link target.
func WithReturnURL(u string) Option {
	return func(r *Renderer) {
		if u = strings.TrimSpace(u); u != "" {
			r.returnURL = u
		}
	}
}

type Renderer struct {
	returnURL string
}

func New(opts ...Option) *Renderer {
	r := &Renderer{returnURL: DefaultReturnURL}
	for _, o := range opts {
		o(r)
	}
	return r
}

var defaultRenderer = New()

// Render uses the default return URL.
func Render(m chat.Message) View { return defaultRenderer.Render(m) }

func (r *Renderer) Render(m chat.Message) View {
	v := View{Paragraphs: m.Paragraphs()}
	if m.Metadata == nil {
		return v
	}
	b := &cardBuilder{returnURL: r.returnURL}
	m.Metadata.Accept(b)
	v.Card = b.card
	return v
}

// cardBuilder is the one place every metadata variant must be handled.
type cardBuilder struct {
	returnURL string
	card      *Card
}

func (b *cardBuilder) VisitProduct(info chat.ProductInfo) {
	p := info.Product
	c := &Card{Kind: CardProduct, Title: "Part " + p.ID}
	if p.Name != "" {
		c.Title, c.Subtitle = p.Name, "Part "+p.ID
	}
	if p.Price != nil {
		c.Fields = append(c.Fields, Field{"Price", "$" + p.Price.StringFixed(2)})
	}
	c.Fields = appendField(c.Fields, "Brand", p.Brand)
	c.Fields = appendField(c.Fields, "Appliance", p.ApplianceType)
	c.Fields = appendField(c.Fields, "Difficulty", p.InstallDifficulty)
	c.Fields = appendField(c.Fields, "Install time", p.InstallTime)
	c.Fields = appendField(c.Fields, "Fixes", strings.Join(p.Symptoms, ", "))

	c.Actions = append(c.Actions, Action{
		Kind:   ActionPrompt,
		Label:  "Check compatibility",
		Prompt: CompatibilityPrompt(p.ID),
	})
	if p.URL != "" {
		c.Actions = append(c.Actions, Action{Kind: ActionNavigate, Label: "View part", URL: p.URL})
	}
	b.card = c
}

func (b *cardBuilder) VisitOrder(info chat.OrderInfo) {
	o := info.Order
	class := ClassifyStatus(o.Status)
	c := &Card{
		Kind:     CardOrder,
		Title:    "Order #" + o.ID,
		Subtitle: o.PartName,
		Badge:    &Badge{Text: firstNonEmpty(o.Status, class.String()), Class: class},
	}
	if o.Date != nil {
		c.Fields = append(c.Fields, Field{"Date", o.Date.Format("Jan 2, 2006")})
	}
	if o.Amount != nil {
		c.Fields = append(c.Fields, Field{"Amount", "$" + o.Amount.StringFixed(2)})
	}
	c.Fields = appendField(c.Fields, "Shipping", o.ShippingType)
	c.Fields = appendField(c.Fields, "Part", o.PartID)
	c.Fields = appendField(c.Fields, "Payment", o.TransactionStatus)

	if o.PartURL != "" {
		c.Actions = append(c.Actions, Action{Kind: ActionNavigate, Label: "View part", URL: o.PartURL})
	}
	if o.ReturnEligible {
		c.Actions = append(c.Actions,
			Action{Kind: ActionNavigate, Label: "Return order", URL: b.returnURL},
			Action{Kind: ActionPrompt, Label: "Chat about return", Prompt: ReturnPrompt(o.ID)},
		)
	}
	b.card = c
}

func (b *cardBuilder) VisitLinks(info chat.LinkSet) {
	c := &Card{Kind: CardLinks}
	for _, l := range info.Links {
		if l.URL != "" {
			c.Actions = append(c.Actions, Action{Kind: ActionNavigate, Label: l.Label, URL: l.URL})
			continue
		}
		c.Actions = append(c.Actions, Action{Kind: ActionPrompt, Label: l.Label, Prompt: l.Prompt})
	}
	b.card = c
}

func CompatibilityPrompt(partID string) string {
	return fmt.Sprintf("Is part %s compatible with my appliance model?", partID)
}

func ReturnPrompt(orderID string) string {
	return fmt.Sprintf("I want to return order #%s", orderID)
}

func appendField(fs []Field, label, value string) []Field {
	if value = strings.TrimSpace(value); value == "" {
		return fs
	}
	return append(fs, Field{Label: label, Value: value})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
