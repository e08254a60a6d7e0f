// Package auth protects the search API.
//
// Two credential kinds are accepted: a static API key in a header, and an
// HMAC-signed JWT bearer token. New builds the authenticator selected by
// configuration and Middleware enforces it on gin routes, storing the
// caller's Identity in the request context.
package auth
