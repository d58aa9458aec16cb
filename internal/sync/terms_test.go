package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProductSearchTerms(t *testing.T) {
	tests := []struct {
		name         string
		productName  string
		description  string
		categoryName string
		contains     []string
		excludes     []string
	}{
		{
			name:        "name and description tokens",
			productName: "Trail Running Shoe",
			description: "Lightweight shoe for trails",
			contains:    []string{"trail", "running", "shoe", "lightweight", "trails"},
			excludes:    []string{"TRAIL", "of", "a"},
		},
		{
			name:         "category name included",
			productName:  "Espresso Cup",
			categoryName: "Kitchen",
			contains:     []string{"espresso", "cup", "kitchen"},
		},
		{
			name:        "short tokens dropped",
			productName: "Tea II",
			description: "a cup of it",
			contains:    []string{"tea", "cup"},
			excludes:    []string{"ii", "a", "of", "it"},
		},
		{
			name: "empty product",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms := ProductSearchTerms(tt.productName, tt.description, tt.categoryName)
			for _, want := range tt.contains {
				assert.Contains(t, terms, want)
			}
			for _, excluded := range tt.excludes {
				assert.NotContains(t, terms, excluded)
			}
			for _, term := range terms {
				assert.Greater(t, len(term), 2)
			}
		})
	}
}

func TestProductSearchTermsDeduplicated(t *testing.T) {
	terms := ProductSearchTerms("Shoe Shoe", "shoe shoe shoe", "")
	count := 0
	for _, term := range terms {
		if term == "shoe" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestProductSearchTermsDeterministic(t *testing.T) {
	first := ProductSearchTerms("Trail Running Shoe", "Lightweight shoe for trails", "Shoes")
	second := ProductSearchTerms("Trail Running Shoe", "Lightweight shoe for trails", "Shoes")
	assert.Equal(t, first, second)
}

func TestUserSearchTerms(t *testing.T) {
	terms := UserSearchTerms("Jean", "Dupont", "jean.dupont@example.com")
	assert.Contains(t, terms, "jean")
	assert.Contains(t, terms, "dupont")
	assert.Contains(t, terms, "jean.dupont@example.com")
	assert.Contains(t, terms, "jean dupont")
}
