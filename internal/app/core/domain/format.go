package domain

import (
	"fmt"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency 預設幣別
const DefaultCurrency = "USD"

// FormatAmount 金額固定兩位小數並加上幣別符號，例如 $25.50
// 未知幣別改用代碼當前綴
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return currency + " " + amount.StringFixed(AmountScale)
	}
	fraction := int32(cur.Fraction)
	return money.New(amount.Round(fraction).Shift(fraction).IntPart(), currency).Display()
}

// FormatDate ISO-8601 字串的前 10 個字元 (YYYY-MM-DD)
func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// FormatLine 清單畫面的一行："<描述> - <金額> on <日期>"
func FormatLine(tx Transaction, currency string) string {
	return fmt.Sprintf("%s - %s on %s", tx.Description, FormatAmount(tx.Amount, currency), FormatDate(tx.OccurredAt))
}
