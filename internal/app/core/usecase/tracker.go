package usecase

import (
	"context"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// Tracker 是畫面 (gRPC / HTTP / CLI) 能看到的帳務介面
type Tracker interface {
	// Initialize 同步遠端資料，失敗只記錄不回傳
	Initialize(ctx context.Context)
	// AddCredit 新增收入，回傳寫入的交易與該次提交的快照
	AddCredit(entry domain.Transaction) (domain.Transaction, domain.State, error)
	// AddDebit 新增支出，回傳寫入的交易與該次提交的快照
	AddDebit(entry domain.Transaction) (domain.Transaction, domain.State, error)
	// SetCurrentUser 模擬登入，回傳該次提交的快照
	SetCurrentUser(update domain.UserUpdate) (domain.State, error)
	// AccountBalance 兩位小數的餘額
	AccountBalance() string
	// CreditList 收入清單複本
	CreditList() []domain.Transaction
	// DebitList 支出清單複本
	DebitList() []domain.Transaction
	// CurrentUser 目前使用者
	CurrentUser() domain.User
	// Snapshot 一致的完整快照
	Snapshot() domain.State
	// Subscribe 訂閱狀態變更
	Subscribe(fn func(domain.Event)) (unsubscribe func())
}

var _ Tracker = (*Controller)(nil)
