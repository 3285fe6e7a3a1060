package chat

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DecodeMetadata turns the raw "metadata" object of a reply envelope into a
// Metadata variant. Unknown or unusable payloads yield nil, never an error:
// the turn then renders as plain text.
func DecodeMetadata(raw json.RawMessage) Metadata {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	f, ok := decodeFields(raw)
	if !ok {
		return nil
	}
	switch strings.TrimSpace(f.str("type")) {
	case TypeProductInfo:
		p, ok := productFromFields(f.obj("product"))
		if !ok {
			return nil
		}
		return ProductInfo{Product: p}
	case TypeOrderInfo:
		o, ok := orderFromFields(f.obj("order"))
		if !ok {
			return nil
		}
		return OrderInfo{Order: o}
	case TypeLinks:
		links := linksFromValue(f["links"])
		if len(links) == 0 {
			return nil
		}
		return LinkSet{Links: links}
	default:
		return nil
	}
}

func productFromFields(f fields) (Product, bool) {
	if f == nil {
		return Product{}, false
	}
	p := Product{
		ID:                f.str("id", "part_id", "partId"),
		Name:              f.str("name", "part_name", "partName"),
		Price:             f.decimal("price", "part_price", "partPrice"),
		URL:               f.str("url", "product_url", "productUrl"),
		Brand:             f.str("brand"),
		ApplianceType:     f.str("applianceType", "appliance_type"),
		InstallDifficulty: f.str("installDifficulty", "install_difficulty"),
		InstallTime:       f.str("installTime", "install_time"),
		Symptoms:          f.list("symptoms"),
	}
	if p.ID == "" {
		return Product{}, false
	}
	return p, true
}

func orderFromFields(f fields) (Order, bool) {
	if f == nil {
		return Order{}, false
	}
	o := Order{
		ID:                f.str("id", "order_id", "orderId"),
		Status:            f.str("status"),
		Date:              parseDate(f.str("date", "order_date", "orderDate")),
		Amount:            f.decimal("amount", "total"),
		ShippingType:      f.str("shippingType", "shipping_type"),
		PartName:          f.str("partName", "part_name"),
		PartID:            f.str("partId", "part_id"),
		PartURL:           f.str("partUrl", "part_url"),
		TransactionStatus: f.str("transactionStatus", "transaction_status"),
		ReturnEligible:    f.boolean("returnEligible", "return_eligible"),
	}
	if o.ID == "" {
		return Order{}, false
	}
	return o, true
}

func linksFromValue(v any) []Link {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Link, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		f := fields(m)
		l := Link{Label: f.str("label"), URL: f.str("url"), Prompt: f.str("prompt")}
		if l.Label == "" || (l.URL == "" && l.Prompt == "") {
			continue
		}
		out = append(out, l)
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

type fields map[string]any

func decodeFields(raw []byte) (fields, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil || m == nil {
		return nil, false
	}
	return fields(m), true
}

func (f fields) lookup(keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := f[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (f fields) obj(key string) fields {
	if m, ok := f[key].(map[string]any); ok {
		return fields(m)
	}
	return nil
}

func (f fields) str(keys ...string) string {
	v, ok := f.lookup(keys...)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func (f fields) decimal(keys ...string) *decimal.Decimal {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimPrefix(strings.TrimSpace(t), "$")
	default:
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}

func (f fields) boolean(keys ...string) bool {
	v, ok := f.lookup(keys...)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		return s == "true" || s == "yes" || s == "1"
	case json.Number:
		return t.String() == "1"
	default:
		return false
	}
}

// list accepts either a JSON array of strings or a comma-joined string.
func (f fields) list(keys ...string) []string {
	v, ok := f.lookup(keys...)
	if !ok {
		return nil
	}
	var parts []string
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.Split(t, ",")
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
