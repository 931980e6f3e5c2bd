package domain

import "errors"

var (
	// ErrNoSuitableKey は要求されたモード（有効/期限切れ）に合う鍵が存在しない場合のエラー。
	ErrNoSuitableKey = errors.New("no suitable key")

	// ErrKeyGeneration は鍵ペアの生成に失敗した場合のエラー。
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrEncoding は鍵素材のエンコードや署名に失敗した場合のエラー。
	ErrEncoding = errors.New("key encoding failed")

	// ErrDuplicateKeyID は同じIDの鍵が既に存在する場合のエラー。
	ErrDuplicateKeyID = errors.New("duplicate key id")

	// ErrMigrationFailed はマイグレーション実行時のエラー。
	ErrMigrationFailed = errors.New("migration failed")

	// ErrInvalidMigrationFile はマイグレーションファイルのフォーマットが不正な場合のエラー。
	ErrInvalidMigrationFile = errors.New("invalid migration file")
)
