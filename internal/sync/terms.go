package sync

import "strings"

// maxDescriptionTokens bounds how much of a product description feeds the
// search terms; the full text is still covered by the description field of
// the text index at its own weight.
const maxDescriptionTokens = 10

// ProductSearchTerms derives the deduplicated lowercase token set used for
// text-index weighting: the full product name, its individual tokens, the
// first tokens of the description and the category name. Terms of length
// two or less are dropped.
func ProductSearchTerms(name, description, categoryName string) []string {
	var terms []string

	if name != "" {
		lower := strings.ToLower(name)
		terms = append(terms, lower)
		terms = append(terms, strings.Fields(lower)...)
	}
	if description != "" {
		tokens := strings.Fields(strings.ToLower(description))
		if len(tokens) > maxDescriptionTokens {
			tokens = tokens[:maxDescriptionTokens]
		}
		terms = append(terms, tokens...)
	}
	if categoryName != "" {
		terms = append(terms, strings.ToLower(categoryName))
	}

	return dedupe(terms)
}

// UserSearchTerms derives search terms from the user's names and email.
func UserSearchTerms(firstName, lastName, email string) []string {
	var terms []string
	if firstName != "" {
		terms = append(terms, strings.ToLower(firstName))
	}
	if lastName != "" {
		terms = append(terms, strings.ToLower(lastName))
	}
	if email != "" {
		terms = append(terms, strings.ToLower(email))
	}
	if firstName != "" && lastName != "" {
		terms = append(terms, strings.ToLower(firstName+" "+lastName))
	}
	return dedupe(terms)
}

// dedupe drops terms of length <= 2 and duplicates, preserving first-seen
// order so repeated derivations yield identical slices.
func dedupe(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if len(t) <= 2 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
