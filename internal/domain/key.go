// Package domain はドメインモデルとビジネスルールを定義する。
package domain

import (
	"crypto/rsa"
	"time"
)

// KeyState は署名鍵の状態を表す。時刻から導出され、保存はしない。
type KeyState string

const (
	// KeyStateValid は有効期限内の鍵を表す。
	KeyStateValid KeyState = "valid"
	// KeyStateExpired は有効期限切れの鍵を表す。
	KeyStateExpired KeyState = "expired"
)

// SigningKey はRSA署名鍵エンティティを表す。生成後は変更しない。
type SigningKey struct {
	ID         string
	PrivateKey *rsa.PrivateKey
	PublicKey  *rsa.PublicKey
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsValid は now 時点で鍵が有効かどうかを返す。
func (k *SigningKey) IsValid(now time.Time) bool {
	return now.Before(k.ExpiresAt)
}

// IsExpired は now 時点で鍵が期限切れかどうかを返す。
func (k *SigningKey) IsExpired(now time.Time) bool {
	return !k.IsValid(now)
}

// State は now 時点の鍵の状態を返す。
func (k *SigningKey) State(now time.Time) KeyState {
	if k.IsValid(now) {
		return KeyStateValid
	}
	return KeyStateExpired
}

// Metadata は秘密鍵を含まない鍵のメタデータを返す。
func (k *SigningKey) Metadata(now time.Time) *KeyMetadata {
	return &KeyMetadata{
		ID:        k.ID,
		CreatedAt: k.CreatedAt,
		ExpiresAt: k.ExpiresAt,
		State:     k.State(now),
	}
}

// KeyMetadata は署名鍵のメタデータを表す（鍵素材を含まない）。
type KeyMetadata struct {
	ID        string
	CreatedAt time.Time
	ExpiresAt time.Time
	State     KeyState
}
