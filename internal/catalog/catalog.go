package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyCatalog is returned when a catalog would contain no items.
var ErrEmptyCatalog = errors.New("catalog is empty")

// MatchMode selects how requested tags are compared to an item's tags.
type MatchMode int

const (
	// MatchExact requires every requested tag to be present verbatim.
	MatchExact MatchMode = iota
	// MatchPartial accepts an item when any requested tag is a substring of its tag string.
	MatchPartial
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchPartial:
		return "partial"
	}
	return fmt.Sprintf("MatchMode(%d)", int(m))
}

// Catalog is an immutable in-memory view of the food items.
// It is never mutated after New returns, so concurrent reads need no locking.
type Catalog struct {
	items      []Item
	byID       map[string]int
	byMealType map[MealType][]int
}

// New builds a catalog from items. Item ids must be unique.
func New(items []Item) (*Catalog, error) {
	if len(items) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		items:      make([]Item, len(items)),
		byID:       make(map[string]int, len(items)),
		byMealType: make(map[MealType][]int, len(MealTypes)),
	}
	for i, it := range items {
		if it.ID == "" {
			return nil, fmt.Errorf("item at position %d has no id", i)
		}
		if _, dup := c.byID[it.ID]; dup {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		if it.Calories < 0 {
			return nil, fmt.Errorf("item %q has negative calories", it.ID)
		}

		it.Tags = append([]string{}, it.Tags...)
		c.items[i] = it
		c.byID[it.ID] = i
		c.byMealType[it.MealType] = append(c.byMealType[it.MealType], i)
	}
	return c, nil
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Items returns all items in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Get returns the item with the given id.
func (c *Catalog) Get(id string) (Item, bool) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, false
	}
	return c.items[idx], true
}

// LookupByMealType returns the items of a meal type in catalog order.
func (c *Catalog) LookupByMealType(t MealType) []Item {
	idxs := c.byMealType[t]
	out := make([]Item, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, c.items[idx])
	}
	return out
}

// FilterByTags returns the items matching tags under mode, in catalog order.
// An empty tag list matches every item.
func (c *Catalog) FilterByTags(tags []string, mode MatchMode) []Item {
	tags = NormalizeTags(tags)
	if len(tags) == 0 {
		return c.Items()
	}

	out := make([]Item, 0)
	for _, it := range c.items {
		if matchesTags(it, tags, mode) {
			out = append(out, it)
		}
	}
	return out
}

func matchesTags(it Item, tags []string, mode MatchMode) bool {
	switch mode {
	case MatchExact:
		for _, t := range tags {
			if !it.HasTag(t) {
				return false
			}
		}
		return true
	case MatchPartial:
		tagString := strings.ToLower(it.TagString())
		for _, t := range tags {
			if strings.Contains(tagString, t) {
				return true
			}
		}
	}
	return false
}
