// Package repositories implements persistence for users and playlists.
//
// Each collection is stored as one JSON document and is loaded in full, mutated and written back in
// full on every operation. Two [Documents] backends are provided:
//   - [FileDocuments] : one file per collection, replaced by writing a temp sibling and renaming it
//   - [SQLiteDocuments] : one row per collection in the documents table
//
// Every load-mutate-persist cycle runs under the collection's lock, so concurrent mutations
// are serialized and none are lost.
//
// Key Implementations:
//   - [PlaylistStore] : owner-scoped playlist CRUD with idempotent item adds and 0-5 ratings
//   - [UserStore] : user accounts with case-insensitive unique usernames
package repositories
