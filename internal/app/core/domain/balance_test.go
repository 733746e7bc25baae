package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func tx(description, amount string) Transaction {
	return Transaction{Description: description, Amount: decimal.RequireFromString(amount)}
}

func TestDeriveBalance_Empty(t *testing.T) {
	assert.Equal(t, "0.00", FormatBalance(DeriveBalance(nil, nil)))
	assert.Equal(t, "0.00", FormatBalance(DeriveBalance([]Transaction{}, []Transaction{})))
}

func TestDeriveBalance_CreditsMinusDebits(t *testing.T) {
	credits := []Transaction{tx("Salary", "100")}
	debits := []Transaction{tx("Groceries", "40")}
	assert.Equal(t, "60.00", FormatBalance(DeriveBalance(credits, debits)))

	credits = append(credits, tx("Refund", "25.50"))
	assert.Equal(t, "85.50", FormatBalance(DeriveBalance(credits, debits)))
}

func TestDeriveBalance_RoundsHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		name    string
		credits []Transaction
		debits  []Transaction
		want    string
	}{
		{"positive half", []Transaction{tx("a", "0.005")}, nil, "0.01"},
		{"negative half", nil, []Transaction{tx("a", "0.005")}, "-0.01"},
		{"below half", []Transaction{tx("a", "1.004")}, nil, "1.00"},
		{"many small amounts", []Transaction{tx("a", "0.1"), tx("b", "0.2")}, nil, "0.30"},
		{"negative balance", []Transaction{tx("a", "10")}, []Transaction{tx("b", "50")}, "-40.00"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, FormatBalance(DeriveBalance(c.credits, c.debits)))
		})
	}
}

func TestDeriveBalance_Idempotent(t *testing.T) {
	credits := []Transaction{tx("a", "12.345"), tx("b", "0.015")}
	debits := []Transaction{tx("c", "3.333")}
	first := DeriveBalance(credits, debits)
	second := DeriveBalance(credits, debits)
	assert.True(t, first.Equal(second))
	assert.True(t, first.Equal(first.Round(AmountScale)))
}
