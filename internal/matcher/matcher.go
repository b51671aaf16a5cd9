// Package matcher decides which catalog items satisfy requested preference
// tags or free-text keywords.
//
// Matching is recall-biased: for tags it returns the union of exact-set and
// substring matches, and any tag or keyword with no literal hit is retried
// through a synonym table.
package matcher

import (
	"strings"

	"meal-recommender/internal/catalog"
)

// Matcher matches tags and keywords against items.
type Matcher struct {
	synonyms SynonymTable
}

// New creates a Matcher. A nil table uses DefaultSynonyms.
func New(synonyms SynonymTable) *Matcher {
	if synonyms == nil {
		synonyms = DefaultSynonyms()
	}
	return &Matcher{synonyms: synonyms}
}

// Synonyms returns the table the matcher uses.
func (m *Matcher) Synonyms() SynonymTable {
	return m.synonyms
}

// MatchTags returns the catalog items eligible for the requested tags, in catalog order.
// Empty tags mean no filtering.
func (m *Matcher) MatchTags(c *catalog.Catalog, tags []string) []catalog.Item {
	tags = catalog.NormalizeTags(tags)
	if len(tags) == 0 {
		return c.Items()
	}

	matched := make(map[string]struct{})
	for _, it := range c.FilterByTags(tags, catalog.MatchExact) {
		matched[it.ID] = struct{}{}
	}
	for _, it := range c.FilterByTags(tags, catalog.MatchPartial) {
		matched[it.ID] = struct{}{}
	}

	all := c.Items()
	for _, tag := range tags {
		if tagHasHit(all, tag) {
			continue
		}
		alts := m.synonyms.Alternates(tag)
		if len(alts) == 0 {
			continue
		}
		for _, it := range all {
			if containsAny(itemText(it), alts) {
				matched[it.ID] = struct{}{}
			}
		}
	}

	out := make([]catalog.Item, 0, len(matched))
	for _, it := range all {
		if _, ok := matched[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// MatchText reports whether text contains at least one term as a case-insensitive
// substring, retrying each term's synonyms when there is no direct hit.
// No terms means no constraint.
func (m *Matcher) MatchText(text string, terms []string) bool {
	terms = catalog.NormalizeTags(terms)
	if len(terms) == 0 {
		return true
	}

	text = strings.ToLower(text)
	if containsAny(text, terms) {
		return true
	}
	for _, term := range terms {
		if containsAny(text, m.synonyms.Alternates(term)) {
			return true
		}
	}
	return false
}

// tagHasHit reports whether any item matches tag exactly or as a substring of its tag string.
func tagHasHit(items []catalog.Item, tag string) bool {
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.TagString()), tag) {
			return true
		}
	}
	return false
}

func itemText(it catalog.Item) string {
	return strings.ToLower(it.Name + " " + it.TagString())
}

func containsAny(text string, subs []string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(text, strings.ToLower(s)) {
			return true
		}
	}
	return false
}
