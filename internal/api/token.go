// Package api holds the wire types shared between the HTTP surface and its
// clients (the simulator among them).
package api

// TokenRequest is the identity exchange payload. The id comes from the
// external identity provider; the endpoint only mints the API session
// token, it does not verify credentials.
type TokenRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// TokenResponse carries the minted session token.
type TokenResponse struct {
	Token string `json:"token"`
}
