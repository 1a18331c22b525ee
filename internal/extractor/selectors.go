package extractor

import (
	"fmt"

	"github.com/andybalholm/cascadia"

	apperrors "sjsage522/bestpick/pkg/errors"
)

// Selectors contains CSS selectors for the search results markup
type Selectors struct {
	ProductList  string
	Title        string
	Price        string
	Rating       string
	DeliveryDate string
	Link         string
	LinkAttr     string
}

// DefaultSelectors returns the selector contract of the supported search results page.
// Bold base-colored text that is a badge, medium-plus or base sized is decoration, not a delivery date.
func DefaultSelectors() Selectors {
	return Selectors{
		ProductList:  `div[data-component-type="s-search-result"]`,
		Title:        ".a-size-medium.a-color-base.a-text-normal",
		Price:        ".a-price .a-offscreen",
		Rating:       ".a-icon-alt",
		DeliveryDate: ".a-color-base.a-text-bold:not(.a-size-medium-plus):not(.a-badge-text):not(.a-size-base)",
		Link:         ".a-link-normal.a-text-normal",
		LinkAttr:     "href",
	}
}

// compiledSelectors holds the matchers built from Selectors
type compiledSelectors struct {
	productList  cascadia.Selector
	title        cascadia.Selector
	price        cascadia.Selector
	rating       cascadia.Selector
	deliveryDate cascadia.Selector
	link         cascadia.Selector
	linkAttr     string
}

// compile validates every selector once so traversal never hits a syntax error
func (s Selectors) compile() (*compiledSelectors, error) {
	compiled := &compiledSelectors{linkAttr: s.LinkAttr}
	if compiled.linkAttr == "" {
		compiled.linkAttr = "href"
	}

	fields := []struct {
		name     string
		selector string
		target   *cascadia.Selector
	}{
		{"product list", s.ProductList, &compiled.productList},
		{"title", s.Title, &compiled.title},
		{"price", s.Price, &compiled.price},
		{"rating", s.Rating, &compiled.rating},
		{"delivery date", s.DeliveryDate, &compiled.deliveryDate},
		{"link", s.Link, &compiled.link},
	}

	for _, field := range fields {
		if field.selector == "" {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("%s selector is empty", field.name), nil)
		}
		sel, err := cascadia.Compile(field.selector)
		if err != nil {
			return nil, apperrors.NewConfiguration(fmt.Sprintf("invalid %s selector %q", field.name, field.selector), err)
		}
		*field.target = sel
	}

	return compiled, nil
}
