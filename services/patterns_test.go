package services

import (
	"testing"
)

func TestNewPatternRegistryRejectsMissingCaptureGroup(t *testing.T) {
	_, err := NewPatternRegistry([]PatternRule{{
		ID:            "broken",
		SenderMatch:   "example.com",
		AmountPattern: `Rs\.\s*\d+`,
	}})
	if err == nil {
		t.Fatal("expected error for amount pattern without capturing group")
	}
}

func TestNewPatternRegistryRejectsBadRegexp(t *testing.T) {
	_, err := NewPatternRegistry([]PatternRule{{
		ID:            "broken",
		SubjectMatch:  `[unclosed`,
		AmountPattern: `(\d+)`,
	}})
	if err == nil {
		t.Fatal("expected error for invalid subject pattern")
	}
}

func TestMatchFirstRuleWins(t *testing.T) {
	registry, err := NewPatternRegistry([]PatternRule{
		{ID: "specific", SenderMatch: "orders.example.com", AmountPattern: `(\d+)`, DefaultCategory: "Shopping"},
		{ID: "generic", SenderMatch: "example.com", AmountPattern: `(\d+)`, DefaultCategory: "Other"},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Both rules would match this sender; registration order decides.
	rule, ok := registry.Match("noreply@orders.example.com", "Your order")
	if !ok {
		t.Fatal("expected a match")
	}
	if rule.ID != "specific" {
		t.Fatalf("expected rule specific, got %s", rule.ID)
	}
}

func TestMatchSenderIsCaseInsensitiveSubstring(t *testing.T) {
	registry, err := NewPatternRegistry([]PatternRule{
		{ID: "netflix", SenderMatch: "netflix.com", AmountPattern: `(\d+)`},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := registry.Match("Info@NETFLIX.COM", "anything"); !ok {
		t.Fatal("expected case-insensitive sender match")
	}
	if _, ok := registry.Match("info@netflix.example.org", "anything"); !ok {
		t.Fatal("expected substring sender match")
	}
	if _, ok := registry.Match("info@other.com", "anything"); ok {
		t.Fatal("expected no match for unrelated sender")
	}
}

func TestMatchSenderAlternatives(t *testing.T) {
	registry, err := NewPatternRegistry([]PatternRule{
		{ID: "bank", SenderMatch: "hdfc|icici|sbi", AmountPattern: `(\d+)`},
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, sender := range []string{"alerts@hdfcbank.net", "no-reply@icicibank.com", "alerts@sbi.co.in"} {
		if _, ok := registry.Match(sender, ""); !ok {
			t.Errorf("expected match for sender %s", sender)
		}
	}
}

func TestMatchBySubjectWhenSenderUnknown(t *testing.T) {
	registry, err := NewPatternRegistry([]PatternRule{
		{ID: "cc", SenderMatch: "statement", SubjectMatch: `Transaction Alert`, AmountPattern: `(\d+)`},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := registry.Match("random@forwarder.com", "transaction alert: purchase at store"); !ok {
		t.Fatal("expected case-insensitive subject match")
	}
}

func TestDefaultPatternsCompile(t *testing.T) {
	registry, err := NewPatternRegistry(DefaultPatterns())
	if err != nil {
		t.Fatal(err)
	}

	rule, ok := registry.Match("info@netflix.com", "Your Netflix bill")
	if !ok || rule.ID != "netflix" {
		t.Fatalf("expected netflix rule, got %v ok=%v", rule.ID, ok)
	}

	// Named merchants must shadow the generic bank rule.
	rule, ok = registry.Match("noreply@swiggy.in", "Debit Alert")
	if !ok || rule.ID != "swiggy" {
		t.Fatalf("expected swiggy rule to win over bank, got %v", rule.ID)
	}
}
