// Package storage persists small client-side values: the auth token, the
// guest id, the selected locale, and the compare list.
//
// All backends implement [Store], a byte-oriented key/value interface:
//
//   - [MemoryStore] keeps values in process (tests, `--store memory`)
//   - [FileStore] writes one JSON file per key under a directory (CLI default)
//   - [RedisStore] shares state between processes through Redis
//   - [MongoStore] keeps one document per key in a MongoDB collection
//   - [PostgresStore] keeps one row per key in a PostgreSQL table
//
// [Open] selects a backend from a [Config]. [GetJSON] and [SetJSON] wrap a
// Store for structured values.
package storage
