package extractor

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
)

var (
	nonPriceChars  = regexp.MustCompile(`[^0-9.]`)
	leadingNumber  = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)
	deliveryPrefix = regexp.MustCompile(`^[^,\d]*,\s*`)

	// Layouts for delivery text once the year has been appended
	deliveryLayouts = []string{
		"January 2 2006",
		"Jan 2 2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"Jan. 2 2006",
		"1/2 2006",
	}
)

// parseLeadingFloat parses the longest decimal number at the start of text
func parseLeadingFloat(text string) (float64, bool) {
	match := leadingNumber.FindString(text)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}
	return value, true
}

// ParsePrice strips everything but digits and dots from text and parses the result.
// Missing or unparseable text yields NoPrice and false.
func ParsePrice(text string) (float64, bool) {
	if strings.TrimSpace(text) == "" {
		return NoPrice, false
	}
	value, ok := parseLeadingFloat(nonPriceChars.ReplaceAllString(text, ""))
	if !ok {
		return NoPrice, false
	}
	return value, true
}

// ParseRating reads the leading number of "<number> out of <anything>".
// Missing or unparseable text yields 0 and false.
func ParseRating(text string) (float64, bool) {
	head, _, _ := strings.Cut(text, " out of")
	value, ok := parseLeadingFloat(strings.TrimSpace(head))
	if !ok {
		return 0, false
	}
	return value, true
}

// ParseDeliveryDate parses the visible text of node as a month/day delivery date.
// A missing node yields NoDeliveryDate and false.
func ParseDeliveryDate(node *goquery.Selection, ref time.Time) (time.Time, bool) {
	if node == nil || node.Length() == 0 {
		return NoDeliveryDate, false
	}
	return ParseDeliveryText(visibleText(node), ref)
}

// ParseDeliveryText parses a month and day relative to ref.
// Dates before the reference day belong to the next calendar year.
func ParseDeliveryText(text string, ref time.Time) (time.Time, bool) {
	text = deliveryPrefix.ReplaceAllString(strings.TrimSpace(text), "")
	if text == "" {
		return NoDeliveryDate, false
	}

	// February 29 only parses in leap years, so each candidate year is parsed on its own
	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, ref.Location())
	for _, year := range []int{ref.Year(), ref.Year() + 1} {
		date, ok := parseWithYear(text, year, ref.Location())
		if ok && !date.Before(refDay) {
			return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, ref.Location()), true
		}
	}
	return NoDeliveryDate, false
}

func parseWithYear(text string, year int, loc *time.Location) (time.Time, bool) {
	withYear := text + " " + strconv.Itoa(year)
	for _, layout := range deliveryLayouts {
		if t, err := time.ParseInLocation(layout, withYear, loc); err == nil {
			return t, true
		}
	}

	t, err := dateparse.ParseIn(withYear, loc)
	if err != nil || t.Year() != year {
		return time.Time{}, false
	}
	return t, true
}

// visibleText returns the whitespace-collapsed text of the first node in s
func visibleText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}
