// Package version detects schema drift with a single lightweight catalog
// query instead of a full read.
package version

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/koustreak/schemacache/internal/catalog"
	"github.com/koustreak/schemacache/internal/errs"
)

// Fingerprint is the hex SHA-256 of the sorted catalog entries.
type Fingerprint string

// String implements fmt.Stringer.
func (f Fingerprint) String() string { return string(f) }

// Short returns the first 12 characters, for logs.
func (f Fingerprint) Short() string {
	if len(f) > 12 {
		return string(f[:12])
	}
	return string(f)
}

// Fetcher runs one catalog query. *catalog.Reader satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, q catalog.Query) ([]map[string]any, error)
}

// Tracker computes fingerprints of the live catalog.
type Tracker struct {
	fetcher Fetcher
}

// NewTracker returns a Tracker reading through f.
func NewTracker(f Fetcher) *Tracker {
	return &Tracker{fetcher: f}
}

// Compute runs the fingerprint query and hashes its entries. The entries
// are sorted first, so row order of the query does not matter.
func (t *Tracker) Compute(ctx context.Context) (Fingerprint, error) {
	rows, err := t.fetcher.Fetch(ctx, catalog.QueryFingerprint)
	if err != nil {
		return "", err
	}

	entries := make([]string, 0, len(rows))
	for _, row := range rows {
		switch v := row["entry"].(type) {
		case string:
			entries = append(entries, v)
		case []byte:
			entries = append(entries, string(v))
		case nil:
			return "", &errs.Error{
				Kind:    errs.ErrKindMalformedResult,
				Op:      "catalog.fingerprint",
				Message: "fingerprint entry is NULL",
			}
		default:
			entries = append(entries, fmt.Sprint(v))
		}
	}
	return Sum(entries), nil
}

// Sum hashes entries after sorting a copy of them.
func Sum(entries []string) Fingerprint {
	sorted := append([]string(nil), entries...)
	sort.Strings(sorted)
	h := sha256.Sum256([]byte(strings.Join(sorted, "\n")))
	return Fingerprint(hex.EncodeToString(h[:]))
}

// HasChanged reports whether a rebuild is needed: the persisted fingerprint
// is absent or differs from the live one.
func HasChanged(persisted, live Fingerprint) bool {
	return persisted == "" || persisted != live
}
