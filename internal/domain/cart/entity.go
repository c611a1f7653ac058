// internal/domain/cart/entity.go
package cart

import (
	"maps"
	"time"
)

// Variant selects a product option such as size or color
type Variant map[string]string

// Normalize returns nil for an empty selector so that "no variant" has one representation
func (v Variant) Normalize() Variant {
	if len(v) == 0 {
		return nil
	}
	return v
}

// Equal reports whether two selectors pick the same option set
func (v Variant) Equal(other Variant) bool {
	return maps.Equal(v.Normalize(), other.Normalize())
}

// Entry is one persisted cart line, unique by product and variant
type Entry struct {
	ProductID uint      `bson:"product_id" json:"product_id"`
	Quantity  int       `bson:"quantity" json:"quantity"`
	Variant   Variant   `bson:"variant,omitempty" json:"variant,omitempty"`
	AddedAt   time.Time `bson:"added_at" json:"added_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Matches reports whether the entry has the given uniqueness key
func (e Entry) Matches(productID uint, variant Variant) bool {
	return e.ProductID == productID && e.Variant.Equal(variant)
}

// Document is the per-identity record holding cart entries and the wishlist
type Document struct {
	UserID    uint      `bson:"user_id" json:"user_id"`
	Entries   []Entry   `bson:"entries" json:"entries"`
	Wishlist  []uint    `bson:"wishlist" json:"wishlist"`
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy safe to mutate
func (d *Document) Clone() *Document {
	c := *d
	c.Entries = make([]Entry, len(d.Entries))
	for i, e := range d.Entries {
		e.Variant = maps.Clone(e.Variant)
		c.Entries[i] = e
	}
	c.Wishlist = append([]uint(nil), d.Wishlist...)
	return &c
}

func (d *Document) indexOf(productID uint, variant Variant) int {
	for i, e := range d.Entries {
		if e.Matches(productID, variant) {
			return i
		}
	}
	return -1
}

// add sums quantity into an existing entry or appends a new one
func (d *Document) add(productID uint, quantity int, variant Variant, now time.Time) {
	if i := d.indexOf(productID, variant); i >= 0 {
		d.Entries[i].Quantity += quantity
		d.Entries[i].UpdatedAt = now
		return
	}
	d.Entries = append(d.Entries, Entry{
		ProductID: productID,
		Quantity:  quantity,
		Variant:   maps.Clone(variant.Normalize()),
		AddedAt:   now,
		UpdatedAt: now,
	})
}

// remove drops the matching entry and reports whether anything changed
func (d *Document) remove(productID uint, variant Variant) bool {
	i := d.indexOf(productID, variant)
	if i < 0 {
		return false
	}
	d.Entries = append(d.Entries[:i], d.Entries[i+1:]...)
	return true
}

// setQuantity replaces the quantity; non-positive values remove the entry
func (d *Document) setQuantity(productID uint, quantity int, variant Variant, now time.Time) bool {
	if quantity <= 0 {
		return d.remove(productID, variant)
	}
	i := d.indexOf(productID, variant)
	if i < 0 {
		return false
	}
	d.Entries[i].Quantity = quantity
	d.Entries[i].UpdatedAt = now
	return true
}

// ProductSnapshot is the product data a cart line is displayed with
type ProductSnapshot struct {
	ID      uint     `json:"id"`
	Name    string   `json:"name"`
	Price   int64    `json:"price"`
	Images  []string `json:"images"`
	Stock   int      `json:"stock"`
	InStock bool     `json:"in_stock"`
}

// HydratedItem is an Entry joined with the live product at read time
type HydratedItem struct {
	Entry
	Product   ProductSnapshot `json:"product"`
	LineTotal int64           `json:"line_total"`
}

// View is what callers see of a cart: persisted entries plus hydrated items
type View struct {
	Entries   []Entry        `json:"entries"`
	Items     []HydratedItem `json:"items"`
	Dropped   []Entry        `json:"dropped,omitempty"`
	ItemCount int            `json:"item_count"`
	Total     int64          `json:"total"`
	Version   int64          `json:"version"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// ItemCount sums raw quantities; one entry with quantity 3 counts 3
func ItemCount(entries []Entry) int {
	count := 0
	for _, e := range entries {
		count += e.Quantity
	}
	return count
}

// Total sums price times quantity over hydrated items
func Total(items []HydratedItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Product.Price * int64(item.Quantity)
	}
	return total
}
