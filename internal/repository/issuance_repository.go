package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"jwks-server/internal/domain"
)

// TokenIssuanceModel はgorm用のモデル定義。
type TokenIssuanceModel struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	KeyID     string    `gorm:"column:kid;type:varchar(64);not null;index:idx_kid"`
	Subject   string    `gorm:"type:varchar(255);not null"`
	Expired   bool      `gorm:"not null;default:false"`
	IssuedAt  time.Time `gorm:"not null;index:idx_issued_at"`
	ExpiresAt time.Time `gorm:"not null"`
}

// TableName はテーブル名を返す。
func (TokenIssuanceModel) TableName() string {
	return "token_issuances"
}

// BeforeCreate はレコード作成前にUUIDを生成する。
func (m *TokenIssuanceModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}

func (m *TokenIssuanceModel) toDomain() *domain.TokenIssuance {
	return &domain.TokenIssuance{
		ID:        m.ID,
		KeyID:     m.KeyID,
		Subject:   m.Subject,
		Expired:   m.Expired,
		IssuedAt:  m.IssuedAt,
		ExpiresAt: m.ExpiresAt,
	}
}

// IssuanceRepository はトークン発行履歴を永続化する。
type IssuanceRepository struct {
	db *gorm.DB
}

// NewIssuanceRepository は新しいIssuanceRepositoryを生成する。
func NewIssuanceRepository(db *gorm.DB) *IssuanceRepository {
	return &IssuanceRepository{db: db}
}

// Record は発行履歴を1件保存する。
func (r *IssuanceRepository) Record(ctx context.Context, issuance *domain.TokenIssuance) error {
	model := &TokenIssuanceModel{
		ID:        issuance.ID,
		KeyID:     issuance.KeyID,
		Subject:   issuance.Subject,
		Expired:   issuance.Expired,
		IssuedAt:  issuance.IssuedAt,
		ExpiresAt: issuance.ExpiresAt,
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		slog.ErrorContext(ctx, "failed to record token issuance",
			"operation", "record",
			"kid", issuance.KeyID,
			"error", err,
		)
		return err
	}
	issuance.ID = model.ID
	return nil
}

// FindByKeyID は指定された鍵で発行された履歴を発行順に取得する。
func (r *IssuanceRepository) FindByKeyID(ctx context.Context, kid string) ([]*domain.TokenIssuance, error) {
	var models []TokenIssuanceModel
	err := r.db.WithContext(ctx).
		Where("kid = ?", kid).
		Order("issued_at ASC").
		Find(&models).Error
	if err != nil {
		slog.ErrorContext(ctx, "failed to find issuances by kid",
			"operation", "find_by_key_id",
			"kid", kid,
			"error", err,
		)
		return nil, err
	}

	out := make([]*domain.TokenIssuance, len(models))
	for i := range models {
		out[i] = models[i].toDomain()
	}
	return out, nil
}
