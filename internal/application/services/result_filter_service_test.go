package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShouldIncludeResult(t *testing.T) {
	s := NewResultFilterService()
	price := 50.0
	minPrice := 25.0
	maxPrice := 100.0

	assert.True(t, s.ShouldIncludeResult(nil, &minPrice, &maxPrice), "quote-based results always pass")
	assert.True(t, s.ShouldIncludeResult(&price, nil, nil), "no bounds passes everything")
	assert.True(t, s.ShouldIncludeResult(&price, &minPrice, &maxPrice))

	low := 10.0
	high := 500.0
	assert.False(t, s.ShouldIncludeResult(&low, &minPrice, nil))
	assert.False(t, s.ShouldIncludeResult(&high, nil, &maxPrice))

	// Bounds are inclusive
	assert.True(t, s.ShouldIncludeResult(&minPrice, &minPrice, &maxPrice))
	assert.True(t, s.ShouldIncludeResult(&maxPrice, &minPrice, &maxPrice))
}

func TestShouldExcludeByChoices(t *testing.T) {
	s := NewResultFilterService()

	assert.False(t, s.ShouldExcludeByChoices("Green Cotton Shirt", map[string]any{"color": "green"}))
	assert.True(t, s.ShouldExcludeByChoices("Blue Cotton Shirt", map[string]any{"color": "green"}))

	// Compound values match when ANY part appears
	assert.False(t, s.ShouldExcludeByChoices("Platinum Ring", map[string]any{"material": "gold or platinum"}))
	assert.True(t, s.ShouldExcludeByChoices("Silver Ring", map[string]any{"material": "gold or platinum"}))

	// Context keys never exclude
	assert.False(t, s.ShouldExcludeByChoices("Any Product", map[string]any{
		"recipient": "my sister",
		"occasion":  "birthday",
		"budget":    "under 50",
	}))

	// Unknown keys are ignored
	assert.False(t, s.ShouldExcludeByChoices("Any Product", map[string]any{"vibe": "cozy"}))

	// Empty or negative answers are ignored
	assert.False(t, s.ShouldExcludeByChoices("Any Product", map[string]any{"color": ""}))
	assert.False(t, s.ShouldExcludeByChoices("Any Product", map[string]any{"color": "not answered"}))
	assert.False(t, s.ShouldExcludeByChoices("Any Product", map[string]any{"size": false}))
}

func TestMatchesChoiceConstraint_ShortTermsNeedWordBoundary(t *testing.T) {
	assert.True(t, MatchesChoiceConstraint("Bright Red Backpack", "color", "red"))
	assert.False(t, MatchesChoiceConstraint("Bordered Notebook", "color", "red"))

	// Longer terms use substring matching
	assert.True(t, MatchesChoiceConstraint("Goldtone Watch", "material", "gold or platinum"))
}

func TestMatchesChoiceConstraint_BooleanTrueChecksKey(t *testing.T) {
	assert.True(t, MatchesChoiceConstraint("Waterproof Hiking Boots", "waterproof", true))
	assert.False(t, MatchesChoiceConstraint("Leather Hiking Boots", "waterproof", true))
}

func TestShouldExcludeByExclusions(t *testing.T) {
	s := NewResultFilterService()

	assert.False(t, s.ShouldExcludeByExclusions("Kindle Book", "Amazon", "amazon.com", nil, nil))

	// Merchant exclusions match merchant name or domain
	assert.True(t, s.ShouldExcludeByExclusions("Kindle Book", "Amazon", "amazon.com", nil, []string{"amazon"}))
	assert.True(t, s.ShouldExcludeByExclusions("Kindle Book", "Bookstore", "amazon.com", nil, []string{"amazon"}))
	assert.False(t, s.ShouldExcludeByExclusions("Kindle Book", "Bookstore", "books.example.com", nil, []string{"amazon"}))

	// Keyword exclusions match titles
	assert.True(t, s.ShouldExcludeByExclusions("Digital Gift Card", "Target", "target.com", []string{"digital"}, nil))
	assert.False(t, s.ShouldExcludeByExclusions("Physical Gift Card", "Target", "target.com", []string{"digital"}, nil))
}
