package domain

import "github.com/shopspring/decimal"

// SumAmount 由左至右加總清單金額
func SumAmount(list []Transaction) decimal.Decimal {
	sum := decimal.Zero
	for _, tx := range list {
		sum = sum.Add(tx.Amount)
	}
	return sum
}

// DeriveBalance 由收入與支出清單推導餘額
//
// 只在最後四捨五入一次 (遠離零)，避免大量小額交易累積誤差。
// 純函式，空清單回傳 0。
func DeriveBalance(credits, debits []Transaction) decimal.Decimal {
	return SumAmount(credits).Sub(SumAmount(debits)).Round(AmountScale)
}

// FormatBalance 餘額固定輸出兩位小數
func FormatBalance(balance decimal.Decimal) string {
	return balance.StringFixed(AmountScale)
}
