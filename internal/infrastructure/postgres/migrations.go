package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/sanosuguru/go-show-booking/internal/pkg/logger"
)

// RunMigrations はデータベースマイグレーションを実行する
// スキーマには予約エンジンが依存する制約（available_seats >= 0、
// (show_id, seat_number) の一意制約）が含まれる
func RunMigrations(db *sql.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("マイグレーションドライバー作成エラー: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://"+migrationsPath,
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("マイグレーションインスタンス作成エラー: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("マイグレーション変更なし")
			return nil
		}
		return fmt.Errorf("マイグレーション実行エラー: %w", err)
	}

	logger.Info("マイグレーション完了")
	return nil
}
