package supabase

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/grocerycalc/backend/internal/domain"
)

// Record is a products row as PostgREST returns it. Columns are loosely
// typed upstream (ids and barcodes as numbers or text, price as number or
// numeric string), so they are decoded raw and coerced by MapProduct.
type Record struct {
	ID        json.RawMessage `json:"id"`
	Name      json.RawMessage `json:"name"`
	Barcode   json.RawMessage `json:"barcode"`
	Price     json.RawMessage `json:"price"`
	DataAdded json.RawMessage `json:"data_added"`
}

// timestamp layouts PostgREST emits for timestamptz and timestamp columns
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07",
	"2006-01-02",
}

// MapProduct coerces one raw record into a Product
func MapProduct(r Record) (domain.Product, error) {
	id, ok := scalarString(r.ID)
	if !ok || id == "" {
		return domain.Product{}, fmt.Errorf("%w: missing or invalid id", domain.ErrMalformedRecord)
	}

	name, _ := scalarString(r.Name)
	barcode, _ := scalarString(r.Barcode)

	priceText, ok := scalarString(r.Price)
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: product %s has no price", domain.ErrMalformedRecord, id)
	}
	price, err := decimal.NewFromString(priceText)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: product %s has invalid price %q", domain.ErrMalformedRecord, id, priceText)
	}

	product := domain.Product{
		ID:      id,
		Name:    strings.TrimSpace(name),
		Barcode: strings.TrimSpace(barcode),
		Price:   price,
	}
	if added, ok := scalarString(r.DataAdded); ok {
		product.AddedAt = parseTimestamp(added)
	}

	if err := product.Validate(); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

// MapProducts coerces a page of records, dropping malformed rows and
// duplicate ids with a log line each. Order is preserved.
func MapProducts(records []Record) []domain.Product {
	products := make([]domain.Product, 0, len(records))
	for i, r := range records {
		p, err := MapProduct(r)
		if err != nil {
			log.Printf("[Supabase] Dropping record %d: %v", i, err)
			continue
		}
		products = append(products, p)
	}

	products, dupes := domain.UniqueByID(products)
	for _, id := range dupes {
		log.Printf("[Supabase] Dropping duplicate product id %s", id)
	}
	return products
}

// scalarString renders a JSON string or number as text. Null, missing,
// booleans and composite values are rejected.
func scalarString(raw json.RawMessage) (string, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return "", false
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// recordFromInput builds the JSON body for an insert
func recordFromInput(input domain.ProductInput) map[string]interface{} {
	return map[string]interface{}{
		"name":    input.Name,
		"barcode": input.Barcode,
		"price":   json.Number(input.Price.String()),
	}
}

// recordFromUpdate builds the JSON body for a partial update
func recordFromUpdate(update domain.ProductUpdate) map[string]interface{} {
	body := make(map[string]interface{})
	if update.Name != nil {
		body["name"] = *update.Name
	}
	if update.Barcode != nil {
		body["barcode"] = *update.Barcode
	}
	if update.Price != nil {
		body["price"] = json.Number(update.Price.String())
	}
	return body
}
