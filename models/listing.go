package models

import "time"

// NotAvailable is written in place of a missing value when a listing is
// serialized to the dataset file.
const NotAvailable = "N/A"

// ScrapedAtLayout is the on-disk format of Listing.ScrapedAt.
const ScrapedAtLayout = "2006-01-02 15:04:05"

// Field is a listing value that may be missing from the page.
type Field struct {
	Value string
	Valid bool
}

func Some(v string) Field {
	return Field{Value: v, Valid: true}
}

// ParseField is the inverse of String. Blank values and the N/A sentinel
// both decode to an absent field.
func ParseField(s string) Field {
	if s == "" || s == NotAvailable {
		return Field{}
	}
	return Some(s)
}

func (f Field) Get() (string, bool) {
	return f.Value, f.Valid
}

func (f Field) String() string {
	if !f.Valid {
		return NotAvailable
	}
	return f.Value
}

// Listing is one scraped search result card.
type Listing struct {
	Price      Field
	Address    Field
	Bedrooms   Field
	Bathrooms  Field
	SquareFeet Field
	ScrapedAt  time.Time
}

// Key is the deduplication key. Listings without an address all share the
// N/A key.
func (l Listing) Key() string {
	return l.Address.String()
}
