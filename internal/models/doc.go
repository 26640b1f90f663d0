// Package models defines the domain entities of the playlist service.
//
// The package contains two categories of types:
//
// 1. Persisted documents: entities stored in the user and playlist collections
//   - [User] : Account with a password digest and profile fields
//   - [Playlist] : Named, owner-scoped, ordered list of saved videos
//   - [PlaylistItem] : A saved video with its normalized metadata and a 0-5 rating
//
// 2. Process-lifetime values: never written to storage
//   - [Session] : Authenticated browser session keyed by an opaque token
//   - [PublicUser] : The subset of [User] returned to clients
//
// JSON tags match the on-disk layout of the user and playlist documents.
package models
