// Package repositories implements persistence for the session record.
//
// Persistence is a namespaced key-value capability ([KV]) with two backends:
//   - [SQLiteKV] : rows in the kv_entries table created by the shared migrations
//   - [BoltKV] : keys in a per-namespace bbolt bucket
//
// [TokenStore] is the thin facade the rest of the module uses: it maps a [models.TokenRecord] onto the four keys
// user_id, country_code, access_token and refresh_token and writes them in a single batch.
package repositories
