// Package wadcache persists extracted WAD metadata between runs.
//
// # Storage
//
// The cache is a single JSON document at a well-known path (default:
// $TMPDIR/wadindex_cache.json):
//
//	{
//	  "version": 1,
//	  "entries": {
//	    "doom2.wad:sha256:…": {"name": "doom2", "is_base_asset": true, …}
//	  }
//	}
//
// Keys come from the identity package. A file whose version differs from
// Version is discarded whole and rebuilt; there is no migration.
//
// # Concurrency
//
// Writers take an exclusive lock on "<path>.lock" and replace the cache with
// a rename of "<path>.tmp", so concurrent runs never interleave bytes.
// Readers do not lock.
package wadcache
