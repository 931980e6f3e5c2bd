package usecase

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jwks-server/internal/domain"
	"jwks-server/internal/repository"
	"jwks-server/migrations"
)

// testMigrationFiles はテスト用のマイグレーションファイル群を返す。
func testMigrationFiles() fstest.MapFS {
	return fstest.MapFS{
		"002_create_posts.sql":    {Data: []byte("CREATE TABLE posts (id INT);")},
		"001_create_users.sql":    {Data: []byte("CREATE TABLE users (id INT);\nCREATE INDEX idx_users_id ON users (id);")},
		"003_create_comments.sql": {Data: []byte("CREATE TABLE comments (id INT);")},
		"README.md":               {Data: []byte("not a migration")},
	}
}

// setupMigrationDB はテスト用のインメモリSQLiteデータベースを作成する。
func setupMigrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// :memory: は接続ごとに別DBになる
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func tableExists(t *testing.T, db *gorm.DB, table string) bool {
	t.Helper()
	var count int64
	if err := db.Raw("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count).Error; err != nil {
		t.Fatalf("failed to check table %s: %v", table, err)
	}
	return count == 1
}

func TestMigrationService_Apply(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	service := NewMigrationService(repository.NewMigrationRepository(db), db, testMigrationFiles())

	count, err := service.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 migrations applied, got %d", count)
	}

	for _, table := range []string{"users", "posts", "comments", "schema_migrations"} {
		if !tableExists(t, db, table) {
			t.Errorf("table %s was not created", table)
		}
	}
}

func TestMigrationService_Apply_Idempotent(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	service := NewMigrationService(repository.NewMigrationRepository(db), db, testMigrationFiles())

	if _, err := service.Apply(ctx); err != nil {
		t.Fatalf("first Apply failed: %v", err)
	}

	// 2回目は何も実行しない（CREATE TABLEが再実行されればエラーになる）
	count, err := service.Apply(ctx)
	if err != nil {
		t.Fatalf("second Apply failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 migrations applied, got %d", count)
	}
}

func TestMigrationService_Apply_OnlyPending(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	files := testMigrationFiles()
	service := NewMigrationService(repository.NewMigrationRepository(db), db, files)

	if _, err := service.Apply(ctx); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	files["004_create_tags.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE tags (id INT);")}
	count, err := service.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 migration applied, got %d", count)
	}
	if !tableExists(t, db, "tags") {
		t.Error("table tags was not created")
	}
}

func TestMigrationService_Apply_Error(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	files := testMigrationFiles()
	files["004_invalid.sql"] = &fstest.MapFile{Data: []byte("INVALID SQL SYNTAX;")}
	service := NewMigrationService(repository.NewMigrationRepository(db), db, files)

	count, err := service.Apply(ctx)
	if !errors.Is(err, domain.ErrMigrationFailed) {
		t.Fatalf("expected ErrMigrationFailed, got %v", err)
	}
	if count != 3 {
		t.Errorf("expected 3 migrations applied before failure, got %d", count)
	}

	// 失敗したバージョンは履歴に残らない
	migrations, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	for _, m := range migrations {
		if m.Version == "004" && m.Status != domain.MigrationStatusPending {
			t.Errorf("migration 004: expected pending, got %s", m.Status)
		}
	}
}

func TestMigrationService_InvalidFileName(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	files := fstest.MapFS{"create_users.sql": {Data: []byte("CREATE TABLE users (id INT);")}}
	service := NewMigrationService(repository.NewMigrationRepository(db), db, files)

	if _, err := service.Apply(ctx); !errors.Is(err, domain.ErrInvalidMigrationFile) {
		t.Fatalf("expected ErrInvalidMigrationFile, got %v", err)
	}
}

func TestMigrationService_Status(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	files := testMigrationFiles()
	service := NewMigrationService(repository.NewMigrationRepository(db), db, fstest.MapFS{
		"001_create_users.sql": files["001_create_users.sql"],
	})
	if _, err := service.Apply(ctx); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	service = NewMigrationService(repository.NewMigrationRepository(db), db, files)
	migrations, err := service.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}

	// バージョン順に並び、001のみ適用済み
	expected := []struct {
		version string
		status  domain.MigrationStatus
	}{
		{"001", domain.MigrationStatusApplied},
		{"002", domain.MigrationStatusPending},
		{"003", domain.MigrationStatusPending},
	}
	for i, want := range expected {
		got := migrations[i]
		if got.Version != want.version {
			t.Errorf("migrations[%d]: expected version %s, got %s", i, want.version, got.Version)
		}
		if got.Status != want.status {
			t.Errorf("migration %s: expected status %s, got %s", got.Version, want.status, got.Status)
		}
		if (got.AppliedAt != nil) != (want.status == domain.MigrationStatusApplied) {
			t.Errorf("migration %s: unexpected applied_at %v", got.Version, got.AppliedAt)
		}
	}
}

func TestMigrationService_EmbeddedMigrations(t *testing.T) {
	ctx := context.Background()
	db := setupMigrationDB(t)
	service := NewMigrationService(repository.NewMigrationRepository(db), db, migrations.FS)

	count, err := service.Apply(ctx)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if count == 0 {
		t.Error("expected embedded migrations to be applied")
	}
	if !tableExists(t, db, "token_issuances") {
		t.Error("table token_issuances was not created")
	}
}

func TestParseMigrationFileName(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantErr     bool
	}{
		{"001_create_token_issuances.sql", "001", "create_token_issuances", false},
		{"20260101_add_index.sql", "20260101", "add_index", false},
		{"create.sql", "", "", true},
		{"001_.sql", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, err := parseMigrationFileName(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error: %v", err)
			}
			if version != tt.wantVersion || name != tt.wantName {
				t.Errorf("got (%s, %s), want (%s, %s)", version, name, tt.wantVersion, tt.wantName)
			}
		})
	}
}
