// Package collation provides the locale-aware string ordering used for
// user-facing catalog and customer listings. Ordering is part of the store
// contract, so every store implementation sorts through this package rather
// than relying on backend-specific collations.
package collation

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	// collate.Collator keeps an internal buffer and is not safe for
	// concurrent use.
	mu       sync.Mutex
	collator = collate.New(language.BrazilianPortuguese, collate.IgnoreCase)
)

// Compare orders a and b the way a pt-BR speaker expects, case- and
// accent-aware. Returns -1, 0 or 1.
func Compare(a, b string) int {
	mu.Lock()
	defer mu.Unlock()
	return collator.CompareString(a, b)
}
