package user

import "sort"

// User is a single registry entry.
type User struct {
	Identifier string `json:"-"`
	PIN        string `json:"pin"`
}

// PINMatches is a plain, case-sensitive equality check. No hashing and no
// constant-time comparison.
func (u User) PINMatches(pin string) bool {
	return u.PIN == pin
}

// Registry maps identifier to user record.
type Registry map[string]User

// Lookup returns the record for identifier, if present.
func (r Registry) Lookup(identifier string) (User, bool) {
	u, ok := r[identifier]
	return u, ok
}

// Identifiers returns every registered identifier in sorted order.
func (r Registry) Identifiers() []string {
	ids := make([]string, 0, len(r))
	for id := range r {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}
