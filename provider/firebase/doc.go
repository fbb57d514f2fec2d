// Package firebase integrates Firebase Authentication.
//
// TokenVerifier checks Firebase ID tokens on the server. Toolkit is the
// client side of the Identity Toolkit REST API used by the credential form,
// and FederatedSignIn exchanges a Google ID token for a Firebase session.
package firebase
