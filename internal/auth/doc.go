// Package auth implements the OAuth2 device authorization flow.
//
// A [Flow] moves through IDLE → REQUESTING → AWAITING_USER → POLLING and ends in GRANTED, EXPIRED or CANCELLED.
// Polling is driven by a ticker and a cancellation signal rather than sleeps:
//
//	flow := auth.New(client, sess, auth.Options{OnGrant: store.Save})
//	grant, err := flow.Start(ctx)
//	// show grant.VerificationURI to the user
//	result, err := flow.Poll(ctx, grant, progress)
//
// [Flow.Cancel] and the grant step share one lock: once Cancel returns, the session can no longer be authenticated
// by that flow.
package auth
