package cart

import "encoding/json"

// MaxQty is the per-line quantity ceiling. Mutations clamp rather than fail.
const MaxQty = 99

// Product is the catalog snapshot embedded in a cart line. Price is stored in
// the smallest currency unit.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Image       string `json:"image,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Category    string `json:"category,omitempty"`
	Description string `json:"description,omitempty"`
	Rating      float64 `json:"rating,omitempty"`
	InStock     bool   `json:"inStock"`
	IsPopular   bool   `json:"isPopular,omitempty"`
	IsNew       bool   `json:"isNew,omitempty"`
}

// Line is one product with its quantity.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the line price, quantity applied.
func (l Line) Subtotal() int64 {
	return l.Product.Price * int64(l.Quantity)
}

// Snapshot is an immutable copy of the cart contents taken under the store
// lock. Checkout submits snapshots, never live state.
type Snapshot struct {
	Lines      []Line
	TotalItems int
	TotalPrice int64
}

type cartDoc struct {
	Items []Line `json:"items"`
}

// EncodeLines serializes lines into the persisted document format.
func EncodeLines(lines []Line) ([]byte, error) {
	doc := cartDoc{Items: lines}
	if doc.Items == nil {
		doc.Items = []Line{}
	}
	return json.Marshal(doc)
}

// DecodeLines parses a persisted document, dropping anything that cannot be
// trusted: lines without a product id, non-positive quantities, and duplicate
// products (merged, clamped). A corrupt document is an error; the caller
// starts empty in that case.
func DecodeLines(data []byte) ([]Line, error) {
	var doc cartDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	lines := make([]Line, 0, len(doc.Items))
	index := make(map[string]int, len(doc.Items))
	for _, item := range doc.Items {
		if item.Product.ID == "" || item.Quantity <= 0 {
			continue
		}
		if item.Quantity > MaxQty {
			item.Quantity = MaxQty
		}
		if i, ok := index[item.Product.ID]; ok {
			merged := lines[i].Quantity + item.Quantity
			if merged > MaxQty {
				merged = MaxQty
			}
			lines[i].Quantity = merged
			continue
		}
		index[item.Product.ID] = len(lines)
		lines = append(lines, item)
	}
	return lines, nil
}

func totalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func totalPrice(lines []Line) int64 {
	var sum int64
	for _, l := range lines {
		sum += l.Subtotal()
	}
	return sum
}
