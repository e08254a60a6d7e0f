// Package secret resolves secret-bearing configuration values.
//
// A value may reference a secret instead of holding it:
//   - Full value:  secretref:env:REDIS_PASSWORD
//   - From a file: secretref:file:/run/secrets/jwt_secret
//   - Inline use:  Bearer secretref:env:API_TOKEN
//
// Values are first expanded with ExpandEnvStrict, so ${VAR} also works and
// fails loudly when VAR is unset.
package secret
