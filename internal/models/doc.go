// Package models defines the domain types shared by the session, device authorization and catalog layers.
//
// The package contains three groups of types:
//
// 1. Session state
//   - [TokenRecord] : the four persisted fields (user id, country code, access and refresh token)
//   - [SessionInfo] : a read-only snapshot of the in-memory session
//   - [AuthState], [Quality] : session enums
//
// 2. Device authorization
//   - [DeviceGrant] : ephemeral device code + verification URI, never persisted
//
// 3. Catalog
//   - [Entity] : closed variant over [Track], [Artist], [Album], [Playlist] and [Mix]
//   - [Item] : the uniform projection every entity is normalized into
//
// Entities are remote shapes; Items are what hosts render, browse by [Item.ID], and hand back for stream resolution.
package models
