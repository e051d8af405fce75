// Package cache provides TTL caches for fetched responses.
//
// Two providers implement [Cache]:
//
//   - [Memory]: a bounded in-process LRU, the default for one process
//   - [StorageCache]: unbounded, persisted through a [Storage] backend and
//     shared across processes or runs
//
// A [Storage] is a plain string key-value surface. Available backends are
// [MemoryStorage], [FileStorage] (a directory, used by the CLI),
// [RedisStorage] and [MongoStorage].
//
// # Expiry
//
// Entries carry an absolute expiry in Unix milliseconds. Expiry is lazy:
// nothing runs in the background, and a stale entry is removed when Get
// finds it. Size therefore counts stale entries that have not been read.
//
// # Keys
//
// [Key] derives the key for a request from its URL, method, headers and
// body:
//
//	key := cache.Key("https://api.example.com/users", "GET", nil, nil)
//	// fetch:3f1c...
//
// # Disabling
//
// [Null] never stores anything and can stand in for any Cache.
package cache
