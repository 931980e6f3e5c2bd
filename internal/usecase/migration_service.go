package usecase

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"jwks-server/internal/domain"
)

// MigrationRepository はマイグレーション履歴を管理するリポジトリのインターフェース。
type MigrationRepository interface {
	EnsureTable(ctx context.Context) error
	FindAllApplied(ctx context.Context) ([]*domain.Migration, error)
}

// MigrationService は埋め込みSQLを順に適用する。
type MigrationService struct {
	repo  MigrationRepository
	db    *gorm.DB
	files fs.FS
}

// NewMigrationService は新しいMigrationServiceを生成する。
func NewMigrationService(repo MigrationRepository, db *gorm.DB, files fs.FS) *MigrationService {
	return &MigrationService{
		repo:  repo,
		db:    db,
		files: files,
	}
}

// parseMigrationFileName はファイル名からバージョンと名前を抽出する。
// フォーマット: {version}_{name}.sql (例: 001_create_token_issuances.sql)
func parseMigrationFileName(filename string) (version, name string, err error) {
	parts := strings.SplitN(strings.TrimSuffix(filename, ".sql"), "_", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("%w: %s (expected format: {version}_{name}.sql)", domain.ErrInvalidMigrationFile, filename)
	}
	return parts[0], parts[1], nil
}

func (s *MigrationService) scan() ([]*domain.Migration, error) {
	entries, err := fs.ReadDir(s.files, ".")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}

	var migrations []*domain.Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		version, name, err := parseMigrationFileName(entry.Name())
		if err != nil {
			return nil, err
		}
		migrations = append(migrations, &domain.Migration{
			Version: version,
			Name:    name,
			Path:    entry.Name(),
			Status:  domain.MigrationStatusPending,
		})
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// Status は全マイグレーションの適用状況を返す。
func (s *MigrationService) Status(ctx context.Context) ([]*domain.Migration, error) {
	all, err := s.scan()
	if err != nil {
		return nil, err
	}
	if err := s.repo.EnsureTable(ctx); err != nil {
		return nil, fmt.Errorf("ensuring schema_migrations: %w", err)
	}
	applied, err := s.repo.FindAllApplied(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching applied migrations: %w", err)
	}

	appliedByVersion := make(map[string]*domain.Migration, len(applied))
	for _, m := range applied {
		appliedByVersion[m.Version] = m
	}
	for _, m := range all {
		if a, ok := appliedByVersion[m.Version]; ok {
			m.Status = domain.MigrationStatusApplied
			m.AppliedAt = a.AppliedAt
		}
	}
	return all, nil
}

// Apply は未適用のマイグレーションをバージョン順に実行し、適用件数を返す。
func (s *MigrationService) Apply(ctx context.Context) (int, error) {
	all, err := s.Status(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load migration status",
			"operation", "apply_migrations",
			"error", err,
		)
		return 0, err
	}

	applied := 0
	for _, m := range all {
		if m.Status == domain.MigrationStatusApplied {
			continue
		}
		if err := s.applyOne(ctx, m); err != nil {
			slog.ErrorContext(ctx, "failed to apply migration",
				"operation", "apply_migrations",
				"version", m.Version,
				"error", err,
			)
			return applied, fmt.Errorf("%w: version %s: %v", domain.ErrMigrationFailed, m.Version, err)
		}
		slog.InfoContext(ctx, "migration applied", "version", m.Version, "name", m.Name)
		applied++
	}
	return applied, nil
}

func (s *MigrationService) applyOne(ctx context.Context, m *domain.Migration) error {
	body, err := fs.ReadFile(s.files, m.Path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", m.Path, err)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range splitStatements(string(body)) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("executing SQL: %w", err)
			}
		}
		return tx.Table("schema_migrations").Create(map[string]any{
			"version":    m.Version,
			"applied_at": time.Now().UTC(),
		}).Error
	})
}

// splitStatements はセミコロン区切りのSQLを文ごとに分割する。
// MySQLドライバはデフォルトで複数文を受け付けない。
func splitStatements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
