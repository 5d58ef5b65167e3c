// Package schema turns catalog row sets into the schema document.
//
// Assemble merges the row sets into one typed Table per "schema.table"
// identity. Flatten then folds key and constraint facts onto the columns and
// produces the Document that is cached and served. The detailed Tables form
// is an intermediate and is never persisted.
package schema

import "github.com/koustreak/schemacache/internal/catalog"

// Build assembles and flattens one snapshot of the catalog.
func Build(sets *catalog.RowSets) *Document {
	return Flatten(Assemble(sets))
}
