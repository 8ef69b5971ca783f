// Package dataset reads, merges and rewrites the listings CSV.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"homesweep/models"
)

// Columns is the canonical header, in file order.
var Columns = []string{"price", "address", "bedrooms", "bathrooms", "square_feet", "scraped_at"}

// Read decodes a dataset. Columns are located by header name, so reordered or
// extra columns are tolerated; a missing column reads as absent values. An
// empty input is an empty dataset.
func Read(r io.Reader) ([]models.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}
	if _, ok := idx["address"]; !ok {
		return nil, fmt.Errorf("header %v has no address column", header)
	}

	col := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return record[i]
	}

	var listings []models.Listing
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		l := models.Listing{
			Price:      models.ParseField(col(record, "price")),
			Address:    models.ParseField(col(record, "address")),
			Bedrooms:   models.ParseField(col(record, "bedrooms")),
			Bathrooms:  models.ParseField(col(record, "bathrooms")),
			SquareFeet: models.ParseField(col(record, "square_feet")),
		}

		if raw := col(record, "scraped_at"); raw != "" && raw != models.NotAvailable {
			ts, err := time.ParseInLocation(models.ScrapedAtLayout, raw, time.Local)
			if err != nil {
				return nil, fmt.Errorf("line %d: scraped_at %q: %w", line, raw, err)
			}
			l.ScrapedAt = ts
		}

		listings = append(listings, l)
	}

	return listings, nil
}

// Write encodes listings with the canonical header. Absent values are written
// as N/A.
func Write(w io.Writer, listings []models.Listing) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, l := range listings {
		scrapedAt := models.NotAvailable
		if !l.ScrapedAt.IsZero() {
			scrapedAt = l.ScrapedAt.Format(models.ScrapedAtLayout)
		}
		row := []string{
			l.Price.String(),
			l.Address.String(),
			l.Bedrooms.String(),
			l.Bathrooms.String(),
			l.SquareFeet.String(),
			scrapedAt,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
