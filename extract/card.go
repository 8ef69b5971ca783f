package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"homesweep/models"
)

// CardSelectors locate fields inside one listing card.
type CardSelectors struct {
	Price   string `yaml:"price"`
	Address string `yaml:"address"`
	Details string `yaml:"details"`
}

// ParseCard does independent lookups for price, address and the facts list
// of a single card. A missing element yields an absent field; the only error
// is markup that cannot be read at all. ScrapedAt is left for the caller.
func ParseCard(html string, sel CardSelectors) (models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return models.Listing{}, fmt.Errorf("parse card: %w", err)
	}

	listing := models.Listing{
		Price:   textField(doc.Selection, sel.Price),
		Address: textField(doc.Selection, sel.Address),
	}

	if facts, ok := detailsText(doc.Selection, sel.Details); ok {
		d := ParseDetails(facts)
		listing.Bedrooms = d.Bedrooms
		listing.Bathrooms = d.Bathrooms
		listing.SquareFeet = d.SquareFeet
	}

	return listing, nil
}

func textField(root *goquery.Selection, selector string) models.Field {
	if selector == "" {
		return models.Field{}
	}
	node := root.Find(selector).First()
	if node.Length() == 0 {
		return models.Field{}
	}
	text := collapseSpace(node.Text())
	if text == "" {
		return models.Field{}
	}
	return models.Some(text)
}

// detailsText renders the facts list with one space between items, the way a
// browser lays out "3 bds | 2 ba | 1,200 sqft" list entries.
func detailsText(root *goquery.Selection, selector string) (string, bool) {
	if selector == "" {
		return "", false
	}
	list := root.Find(selector).First()
	if list.Length() == 0 {
		return "", false
	}

	items := list.Find("li")
	if items.Length() == 0 {
		return collapseSpace(list.Text()), true
	}

	parts := make([]string, 0, items.Length())
	items.Each(func(_ int, li *goquery.Selection) {
		if t := collapseSpace(li.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " "), true
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
