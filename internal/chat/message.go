package chat

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	ID       string
	Role     Role
	Content  string
	Metadata Metadata // nil for plain-text turns
}

// Paragraphs splits Content on newlines, dropping blank segments.
func (m Message) Paragraphs() []string {
	raw := strings.Split(m.Content, "\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Metadata is the structured payload an assistant turn may carry.
// The variant set is closed: ProductInfo, OrderInfo and LinkSet.
type Metadata interface {
	Type() string
	Accept(v MetadataVisitor)
	sealed()
}

// MetadataVisitor has one method per Metadata variant, so a new variant
// breaks every implementation until it is handled.
type MetadataVisitor interface {
	VisitProduct(ProductInfo)
	VisitOrder(OrderInfo)
	VisitLinks(LinkSet)
}

const (
	TypeProductInfo = "product_info"
	TypeOrderInfo   = "order_info"
	TypeLinks       = "links"
)

type ProductInfo struct {
	Product Product
}

func (ProductInfo) Type() string               { return TypeProductInfo }
func (p ProductInfo) Accept(v MetadataVisitor) { v.VisitProduct(p) }
func (ProductInfo) sealed()                    {}

type OrderInfo struct {
	Order Order
}

func (OrderInfo) Type() string               { return TypeOrderInfo }
func (o OrderInfo) Accept(v MetadataVisitor) { v.VisitOrder(o) }
func (OrderInfo) sealed()                    {}

type LinkSet struct {
	Links []Link
}

func (LinkSet) Type() string               { return TypeLinks }
func (l LinkSet) Accept(v MetadataVisitor) { v.VisitLinks(l) }
func (LinkSet) sealed()                    {}

type Product struct {
	ID                string
	Name              string
	Price             *decimal.Decimal
	URL               string
	Brand             string
	ApplianceType     string
	InstallDifficulty string
	InstallTime       string
	Symptoms          []string
}

type Order struct {
	ID                string
	Status            string
	Date              *time.Time
	Amount            *decimal.Decimal
	ShippingType      string
	PartName          string
	PartID            string
	PartURL           string
	TransactionStatus string
	ReturnEligible    bool
}

// Link renders as navigation when URL is set, otherwise as a button that
// sends Prompt as if the user had typed it.
type Link struct {
	Label  string
	URL    string
	Prompt string
}

type QuickAction struct {
	ID          string   `yaml:"id" validate:"required"`
	Label       string   `yaml:"label" validate:"required"`
	StarterText string   `yaml:"starter_text"`
	Examples    []string `yaml:"examples" validate:"dive,required"`
}
