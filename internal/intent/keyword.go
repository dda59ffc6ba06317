package intent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Compile-time interface check.
var _ Parser = (*KeywordParser)(nil)

// KeywordParser is a deterministic, non-LLM parser. It splits the query into
// item fragments on "and", commas, and semicolons, strips filler words, and
// pulls per-item price caps out of phrases like "under $100".
type KeywordParser struct{}

// NewKeywordParser returns a ready-to-use KeywordParser.
func NewKeywordParser() *KeywordParser {
	return &KeywordParser{}
}

var (
	fragmentRe = regexp.MustCompile(`(?i)\s*(?:,|;|\band\b|\bplus\b|\balong with\b)\s*`)
	budgetRe   = regexp.MustCompile(`(?i)\b(?:under|below|less than|max(?:imum)?(?:\s+of)?|up to)\s*\$?\s*(\d+(?:\.\d{1,2})?)\b`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// fillerWords are leading tokens that carry no search signal.
var fillerWords = map[string]bool{
	"i":      true,
	"need":   true,
	"want":   true,
	"buy":    true,
	"get":    true,
	"find":   true,
	"me":     true,
	"please": true,
	"a":      true,
	"an":     true,
	"some":   true,
	"the":    true,
	"new":    true,
}

// Parse splits query into item requests. IDs are assigned in fragment order
// ("item-1", "item-2", ...). Returns ErrUnintelligible if nothing usable
// remains after filtering.
func (p *KeywordParser) Parse(query string) ([]ItemRequest, error) {
	fragments := fragmentRe.Split(query, -1)

	var items []ItemRequest
	for _, frag := range fragments {
		frag = strings.TrimSpace(frag)
		if frag == "" {
			continue
		}

		var maxPrice *decimal.Decimal
		if m := budgetRe.FindStringSubmatch(frag); m != nil {
			cap, err := decimal.NewFromString(m[1])
			if err == nil {
				maxPrice = &cap
			}
			frag = strings.TrimSpace(budgetRe.ReplaceAllString(frag, ""))
		}

		text := stripFiller(frag)
		if text == "" {
			continue
		}

		items = append(items, ItemRequest{
			ID:       fmt.Sprintf("item-%d", len(items)+1),
			Query:    text,
			MaxPrice: maxPrice,
		})
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnintelligible, query)
	}
	return items, nil
}

// stripFiller drops leading filler words and collapses whitespace.
func stripFiller(s string) string {
	words := strings.Fields(strings.ToLower(s))
	start := 0
	for start < len(words) && fillerWords[words[start]] {
		start++
	}
	return spaceRe.ReplaceAllString(strings.Join(words[start:], " "), " ")
}
