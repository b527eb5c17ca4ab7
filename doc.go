// Package auth implements the authentication and authorization core for the
// SPS user management API: credential verification, JWT issuance and
// validation, role-based access control, and the HTTP controllers that expose
// them.
//
// The core is stateless by design. Tokens carry the full identity claim set
// (id, email, name, role) and are never revoked before expiry; verification is
// a pure function of the raw token, the signing configuration, and the clock.
// The user store is an external collaborator behind the Users interface, with
// an in-memory implementation for development and a Bun/sqlite implementation
// for persistence. Abuse-rate limiting lives in the ratelimit subpackage and
// the Bearer-token middleware in middleware/jwtware.
package auth
