package domain

import "time"

// EventKind 狀態變更種類
type EventKind string

const (
	// 初次同步完成
	EventInitialized EventKind = "initialized"
	// 新增收入
	EventCreditAdded EventKind = "credit_added"
	// 新增支出
	EventDebitAdded EventKind = "debit_added"
	// 使用者登入
	EventUserChanged EventKind = "user_changed"
)

// Event 每次發佈新快照時送給訂閱者的通知
type Event struct {
	Kind     EventKind    `json:"kind"`
	Entry    *Transaction `json:"entry,omitempty"`
	Balance  string       `json:"balance"`
	UserName string       `json:"userName"`
	Version  uint64       `json:"version"`
	At       time.Time    `json:"at"`
}

// NewEvent 由快照產生事件
func NewEvent(kind EventKind, s State, entry *Transaction, at time.Time) Event {
	return Event{
		Kind:     kind,
		Entry:    entry,
		Balance:  s.BalanceString(),
		UserName: s.User.UserName,
		Version:  s.Version,
		At:       at,
	}
}
