// Package auth provides the request-boundary authentication gate used by
// go-auth-gate services.
//
// Request pipeline:
//   - CredentialVerifier reads the raw Authorization header, accepts only the
//     "Bearer <token>" shape and delegates to a TokenVerifier implementation
//     (see provider/firebase and provider/auth0). Missing, malformed or
//     rejected credentials never fail the request: the outcome is an
//     anonymous context and the failure is logged.
//   - ContextBuilder turns the verification result into a RequestContext that
//     is attached once to the request context.Context and never replaced.
//   - Guard and Protected implement the per-operation capability check.
//     Protected operations receive the verified Claims; anonymous callers get
//     ErrUnauthenticated and the operation body does not run.
//
// The client side of the credential flow (form validation, sign-in, sign-up,
// federated sign-in and error classification) lives in the client package.
package auth
