package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AmountScale 金額顯示與餘額計算的小數位數
const AmountScale int32 = 2

// dateLayouts 可接受的日期格式 (遠端資料來源可能只給日期)
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.DateOnly,
}

// Transaction 一筆收入或支出紀錄，建立後不可變
type Transaction struct {
	// ID: 進入系統時配發，供畫面當作列表 key
	ID uuid.UUID
	// Description: 描述，不可為空
	Description string
	// Amount: 金額 (正負號不限制)
	Amount decimal.Decimal
	// OccurredAt: 交易時間
	OccurredAt time.Time
}

// NewTransaction 建立並驗證一筆交易
//
// 參數:
//
//	description: 描述
//	amount: 金額
//	at: 交易時間，零值代表由 Controller 補上當下時間
//
// 回傳:
//
//	Transaction: 交易
//	error: 驗證錯誤
func NewTransaction(description string, amount decimal.Decimal, at time.Time) (Transaction, error) {
	tx := Transaction{
		ID:          uuid.New(),
		Description: description,
		Amount:      amount,
		OccurredAt:  at,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// NewTransactionFromFloat 從 float64 建立交易，NaN 與 Inf 會被拒絕
func NewTransactionFromFloat(description string, amount float64, at time.Time) (Transaction, error) {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Transaction{}, &ValidationError{Field: "amount", Err: ErrAmountNotFinite}
	}
	return NewTransaction(description, decimal.NewFromFloat(amount), at)
}

// ParseAmount 解析表單輸入的金額字串
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "inf", "infinity":
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrAmountNotFinite}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Err: ErrAmountInvalid}
	}
	return d, nil
}

// ParseDate 解析 ISO-8601 日期時間
func ParseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// Validate 檢查必填欄位
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrDescriptionRequired}
	}
	return nil
}

// transactionJSON 對應遠端資料與 HTTP 的 JSON 形狀
// 遠端的 id 可能是數字，只有 UUID 字串會被保留
type transactionJSON struct {
	ID          json.RawMessage `json:"id,omitempty"`
	Description string          `json:"description"`
	Amount      json.RawMessage `json:"amount"`
	Date        string          `json:"date"`
}

// MarshalJSON amount 以數字輸出，date 以 ISO-8601 輸出
func (t Transaction) MarshalJSON() ([]byte, error) {
	out := transactionJSON{
		Description: t.Description,
		Amount:      json.RawMessage(t.Amount.String()),
		Date:        t.OccurredAt.Format(time.RFC3339Nano),
	}
	if t.ID != uuid.Nil {
		out.ID = json.RawMessage(strconv.Quote(t.ID.String()))
	}
	return json.Marshal(out)
}

// UnmarshalJSON 解析並驗證一筆交易，缺少 date 時保留零值
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var in transactionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in.Amount) == 0 || string(in.Amount) == "null" {
		return &ValidationError{Field: "amount", Err: ErrAmountInvalid}
	}
	var amount decimal.Decimal
	if err := amount.UnmarshalJSON(in.Amount); err != nil {
		return &ValidationError{Field: "amount", Err: ErrAmountInvalid}
	}
	var at time.Time
	if in.Date != "" {
		parsed, err := ParseDate(in.Date)
		if err != nil {
			return &ValidationError{Field: "date", Err: ErrDateInvalid}
		}
		at = parsed
	}
	tx := Transaction{
		ID:          parseID(in.ID),
		Description: in.Description,
		Amount:      amount,
		OccurredAt:  at,
	}
	if err := tx.Validate(); err != nil {
		return err
	}
	*t = tx
	return nil
}

// parseID UUID 字串沿用，其他 (數字、空值) 重新配發
func parseID(raw json.RawMessage) uuid.UUID {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if id, err := uuid.Parse(s); err == nil {
			return id
		}
	}
	return uuid.New()
}
