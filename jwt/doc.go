// Package jwt reads access tokens issued by the auth module. By default the
// signature is not checked because the client holds no key; configuring a
// verify key switches to full verification.
package jwt
