package services

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternRule is one extraction rule for a recognized merchant or bank
// notification. SenderMatch is a |-separated list of case-insensitive
// substrings tested against the sender address; SubjectMatch is a
// case-insensitive expression tested anywhere in the subject; AmountPattern
// must contain exactly one capturing group around the amount.
type PatternRule struct {
	ID              string
	SenderMatch     string
	SubjectMatch    string
	AmountPattern   string
	DefaultCategory string
}

type compiledRule struct {
	rule      PatternRule
	senders   []string
	subjectRe *regexp.Regexp
	amountRe  *regexp.Regexp
}

// PatternRegistry is an immutable, ordered rule table. Order is significant:
// the first rule whose sender or subject condition holds wins, so specific
// merchant rules must be registered before generic bank rules.
type PatternRegistry struct {
	rules []compiledRule
}

// NewPatternRegistry compiles the rules, preserving registration order.
func NewPatternRegistry(rules []PatternRule) (*PatternRegistry, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		subjectRe, err := regexp.Compile("(?i)" + r.SubjectMatch)
		if err != nil {
			return nil, fmt.Errorf("rule %s: bad subject pattern: %w", r.ID, err)
		}
		amountRe, err := regexp.Compile("(?i)" + r.AmountPattern)
		if err != nil {
			return nil, fmt.Errorf("rule %s: bad amount pattern: %w", r.ID, err)
		}
		if amountRe.NumSubexp() < 1 {
			return nil, fmt.Errorf("rule %s: amount pattern has no capturing group", r.ID)
		}

		var senders []string
		for _, tok := range strings.Split(r.SenderMatch, "|") {
			if tok = strings.ToLower(strings.TrimSpace(tok)); tok != "" {
				senders = append(senders, tok)
			}
		}

		compiled = append(compiled, compiledRule{
			rule:      r,
			senders:   senders,
			subjectRe: subjectRe,
			amountRe:  amountRe,
		})
	}
	return &PatternRegistry{rules: compiled}, nil
}

// Match returns the first rule, in registration order, whose sender or
// subject condition holds. Pure and deterministic.
func (p *PatternRegistry) Match(sender, subject string) (PatternRule, bool) {
	if c := p.find(sender, subject); c != nil {
		return c.rule, true
	}
	return PatternRule{}, false
}

func (p *PatternRegistry) find(sender, subject string) *compiledRule {
	lowerSender := strings.ToLower(sender)
	for i := range p.rules {
		c := &p.rules[i]
		for _, s := range c.senders {
			if strings.Contains(lowerSender, s) {
				return c
			}
		}
		if c.rule.SubjectMatch != "" && c.subjectRe.MatchString(subject) {
			return c
		}
	}
	return nil
}

// DefaultPatterns is the stock rule table for common merchants and banks.
// Named-merchant rules come first; the generic credit-card and bank-debit
// rules close the table so they only catch what nothing else claimed.
func DefaultPatterns() []PatternRule {
	return []PatternRule{
		{
			ID:              "netflix",
			SenderMatch:     "netflix.com",
			SubjectMatch:    `Your Netflix bill`,
			AmountPattern:   `(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Entertainment",
		},
		{
			ID:              "amazon",
			SenderMatch:     "amazon.in",
			SubjectMatch:    `Your Amazon.*order`,
			AmountPattern:   `(?:Total:|Order Total:)\s*(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Shopping",
		},
		{
			ID:              "swiggy",
			SenderMatch:     "swiggy.in",
			SubjectMatch:    `Your Swiggy order`,
			AmountPattern:   `(?:Total bill|Bill total)\s*(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Food & Dining",
		},
		{
			ID:              "zomato",
			SenderMatch:     "zomato.com",
			SubjectMatch:    `Your Zomato order`,
			AmountPattern:   `(?:Total|Bill Amount)\s*(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Food & Dining",
		},
		{
			ID:              "uber",
			SenderMatch:     "uber.com",
			SubjectMatch:    `Your.*trip with Uber`,
			AmountPattern:   `(?:Trip Fare|Total)\s*(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Transportation",
		},
		{
			ID:              "creditcard",
			SenderMatch:     "statement|credit card",
			SubjectMatch:    `Transaction Alert|Purchase`,
			AmountPattern:   `(?:Amount|Transaction)\s*(?:Rs\.|INR|₹)\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Other",
		},
		{
			ID:              "bank",
			SenderMatch:     "bank|hdfc|icici|sbi|axis",
			SubjectMatch:    `Debit Alert|Debited`,
			AmountPattern:   `(?:debited|withdrawn)\s*(?:with|by|for)?\s*(?:Rs\.|INR|₹)?\s*([\d,]+(?:\.\d{1,2})?)`,
			DefaultCategory: "Other",
		},
	}
}
