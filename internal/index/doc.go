// Package index discovers WAD and zip archives under a root directory and
// keeps their extracted metadata in a cache keyed by file identity.
//
// One run moves through fixed phases:
//
//  1. Load pulls the persisted entries from the Store.
//  2. Scan walks the root and resolves every candidate file. A cache hit
//     reuses the stored record; a miss opens the container, feeds its lumps
//     to wadmeta.Builder and inserts the result.
//  3. Reconciliation evicts every cached key that no discovered file backs.
//  4. Persist writes the entries back when anything changed.
//
// An Index is owned by one goroutine. It performs no locking.
package index
