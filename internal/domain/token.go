package domain

import "time"

// IssuedToken は署名済みトークンと、その署名に使った鍵の情報。
type IssuedToken struct {
	Token     string
	KeyID     string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Expired   bool
}

// TokenIssuance はトークン発行の監査レコード。トークン本体は保持しない。
type TokenIssuance struct {
	ID        string
	KeyID     string
	Subject   string
	Expired   bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}
