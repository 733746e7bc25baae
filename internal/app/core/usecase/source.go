package usecase

import (
	"context"

	"github.com/JoeShih716/go-finance-tracker/internal/app/core/domain"
)

// Source 遠端資料來源，啟動時各讀一次，唯讀
type Source interface {
	// FetchCredits 取得完整收入清單 (依來源順序)
	FetchCredits(ctx context.Context) ([]domain.Transaction, error)
	// FetchDebits 取得完整支出清單 (依來源順序)
	FetchDebits(ctx context.Context) ([]domain.Transaction, error)
}

// EventBus 狀態變更通知
//
// Publish 在持有 Controller 的鎖時呼叫，必須只排入事件而不等待訂閱者；
// 回傳 false 代表事件被丟棄 (例如已停止)。
type EventBus interface {
	Publish(ev domain.Event) bool
	Subscribe(fn func(domain.Event)) (unsubscribe func())
}
