package uniquevalue

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Category identifies one of the fixed free-text field groups tracked for
// autocomplete. The set is closed: code that handles categories can range over
// Categories() and assume nothing else ever shows up.
type Category string

const (
	CategoryNames     Category = "names"
	CategoryGifts     Category = "gifts"
	CategoryRelations Category = "relations"
	CategoryCities    Category = "cities"
	CategoryWorkTypes Category = "workTypes"
)

// Categories returns every known category in a stable order.
func Categories() []Category {
	return []Category{
		CategoryNames,
		CategoryGifts,
		CategoryRelations,
		CategoryCities,
		CategoryWorkTypes,
	}
}

// Validate checks that the category belongs to the closed set.
func (c Category) Validate() error {
	return validation.Validate(string(c),
		validation.Required,
		validation.In(
			string(CategoryNames),
			string(CategoryGifts),
			string(CategoryRelations),
			string(CategoryCities),
			string(CategoryWorkTypes),
		),
	)
}

func (c Category) String() string { return string(c) }

// Set is the combined value lists for all categories. A missing key means the
// category has never been written; that is distinct from a present-but-empty
// list, though Complete treats both as "needs a remote sync".
type Set map[Category][]string

// Get returns the list for a category, never nil.
func (s Set) Get(category Category) []string {
	if s == nil {
		return []string{}
	}
	if values, ok := s[category]; ok {
		return values
	}
	return []string{}
}

// Complete reports whether every known category is present with at least one
// value. A present-but-empty list fails the check on purpose: the original
// system cannot tell "legitimately empty on the server" apart from "never
// synced", so both trigger a refetch. Keep that decision inside this predicate.
func (s Set) Complete() bool {
	for _, category := range Categories() {
		if len(s[category]) == 0 {
			return false
		}
	}
	return true
}

// Empty reports whether the set holds no categories at all.
func (s Set) Empty() bool { return len(s) == 0 }

// Clone returns a deep copy so callers can hand a Set to the in-memory cache
// without sharing backing arrays with the store layer.
func (s Set) Clone() Set {
	if s == nil {
		return nil
	}
	out := make(Set, len(s))
	for category, values := range s {
		out[category] = append([]string(nil), values...)
	}
	return out
}

// WithValues returns a shallow copy of the set with one category replaced.
func (s Set) WithValues(category Category, values []string) Set {
	out := make(Set, len(s)+1)
	for c, v := range s {
		out[c] = v
	}
	out[category] = values
	return out
}

// Contains reports whether value is already in list, ignoring case and
// surrounding whitespace. This is the membership rule used everywhere a value
// is appended; existing duplicates are never retroactively collapsed.
func Contains(list []string, value string) bool {
	needle := strings.ToLower(strings.TrimSpace(value))
	for _, item := range list {
		if strings.ToLower(strings.TrimSpace(item)) == needle {
			return true
		}
	}
	return false
}

// AppendIfAbsent returns list with value appended unless an equal entry (per
// Contains) is already there. Insertion order is preserved.
func AppendIfAbsent(list []string, value string) []string {
	if Contains(list, value) {
		return list
	}
	return append(append([]string(nil), list...), value)
}

// Merge combines incoming lists into existing without duplicating entries that
// are case-insensitively equal. Existing entries keep their position; new ones
// are appended in the incoming order.
func Merge(existing, incoming Set) Set {
	merged := existing.Clone()
	if merged == nil {
		merged = Set{}
	}
	for category, values := range incoming {
		combined := append([]string(nil), merged[category]...)
		for _, value := range values {
			combined = AppendIfAbsent(combined, value)
		}
		merged[category] = combined
	}
	return merged
}
