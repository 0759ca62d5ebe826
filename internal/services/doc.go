// Package services implements the remote TIDAL capabilities the rest of the module consumes.
//
// # Interfaces
//
// [Catalog] is the catalog capability: favorites listings, children of browsable nodes, search, stream resolution and
// favorite toggling. [TidalService] implements it together with the device authorization calls used by the auth
// package.
//
// # Authentication
//
// Device codes are issued by POSTing to {auth_url}/device_authorization. Token checks and refreshes go through
// [oauth2.Config] against {auth_url}/token, with client credentials sent in the form body.
//
// A catalog request answered with 401 triggers one silent refresh and one retry. The renewed record is written back to
// the [session.Session] and handed to the OnRefresh callback for persistence.
//
// Requests without a session fall back to the public catalog using the X-Tidal-Token client header.
//
// # Pagination
//
// Listing endpoints are paged by offset. Each endpoint keeps its own cursor: refresh restarts it at zero, otherwise the
// next page is returned.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNetwork] : transport failure
//   - [shared.ErrAPIRequest] : non-2xx response
//   - [shared.ErrNotAuthenticated] : endpoint needs a user session
//   - [shared.ErrRefreshFailed] : the refresh token was rejected
//   - [shared.ErrAuthorizationPending], [shared.ErrAccessDenied], [shared.ErrAuthTimeout] : device token checks
//   - [shared.ErrUnsupportedManifest] : stream manifest is not a BTS manifest
package services
