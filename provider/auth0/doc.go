// Package auth0 verifies Auth0-issued ID and access tokens and maps them to
// auth.Claims.
//
// A TokenVerifier can be used on its own with auth.NewCredentialVerifier or
// combined with other providers through auth.NewMultiTokenVerifier.
package auth0
