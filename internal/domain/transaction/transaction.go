package transaction

import "context"

// Tx はトランザクションを表すインターフェース
// ドメイン層がインフラ層（sqlx等）に依存しないようにするための抽象化
// コミット済みのトランザクションへの Rollback は no-op として扱える
type Tx interface {
	// Commit はトランザクションをコミットする
	Commit() error
	// Rollback はトランザクションをロールバックする
	Rollback() error
}

// Manager はトランザクションを管理するインターフェース
// Begin が返すトランザクションは直列化可能分離レベルで開始される
// 予約の確保・キャンセル・期限切れはすべてこの境界の中で完結する
type Manager interface {
	// Begin は新しいトランザクションを開始する
	Begin(ctx context.Context) (Tx, error)
}
