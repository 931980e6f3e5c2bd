package domain

// JWK は公開鍵1件のJSON Web Key表現 (RFC 7517)。
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// JWKS は公開鍵セット。
type JWKS struct {
	Keys []JWK `json:"keys"`
}
