package domain

import "github.com/shopspring/decimal"

// State 帳戶狀態快照，所有更新都回傳新的 State，不修改原本的值
//
// 結構:
//
//	Balance: 由 Credits 與 Debits 推導，永遠不單獨設定
//	Credits: 收入清單 (依加入順序)
//	Debits: 支出清單 (依加入順序)
//	User: 目前使用者
//	Version: 每次發佈更新加一
type State struct {
	Balance decimal.Decimal
	Credits []Transaction
	Debits  []Transaction
	User    User
	Version uint64
}

// NewState 建立預設狀態：空清單、餘額 0
func NewState(user User) State {
	return State{
		Balance: DeriveBalance(nil, nil),
		Credits: []Transaction{},
		Debits:  []Transaction{},
		User:    user,
	}
}

// WithCredit 新增一筆收入並重算餘額
func (s State) WithCredit(tx Transaction) State {
	return s.replace(appendCopy(s.Credits, tx), s.Debits)
}

// WithDebit 新增一筆支出並重算餘額
func (s State) WithDebit(tx Transaction) State {
	return s.replace(s.Credits, appendCopy(s.Debits, tx))
}

// WithLists 同時替換兩份清單並重算餘額
func (s State) WithLists(credits, debits []Transaction) State {
	return s.replace(cloneList(credits), cloneList(debits))
}

// replace 清單與餘額一起換掉，呼叫端保證清單不與其他快照共用
func (s State) replace(credits, debits []Transaction) State {
	s.Credits = credits
	s.Debits = debits
	s.Balance = DeriveBalance(s.Credits, s.Debits)
	s.Version++
	return s
}

// WithUser 合併使用者資料，不影響清單與餘額
func (s State) WithUser(update UserUpdate) State {
	s.User = s.User.Merge(update)
	s.Version++
	return s
}

// BalanceString 兩位小數字串
func (s State) BalanceString() string {
	return FormatBalance(s.Balance)
}

// appendCopy 永遠配置新的 backing array，避免與舊快照共用
func appendCopy(list []Transaction, tx Transaction) []Transaction {
	out := make([]Transaction, len(list), len(list)+1)
	copy(out, list)
	return append(out, tx)
}

func cloneList(list []Transaction) []Transaction {
	out := make([]Transaction, len(list))
	copy(out, list)
	return out
}
