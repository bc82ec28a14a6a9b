package services

import (
	"github.com/shopspring/decimal"
)

// 金額計算到小數點後兩位
const currencyPlaces = 2

func lineSubtotal(price float64, quantity int) decimal.Decimal {
	return decimal.NewFromFloat(price).Mul(decimal.NewFromInt(int64(quantity))).Round(currencyPlaces)
}

func amount(d decimal.Decimal) float64 {
	f, _ := d.Round(currencyPlaces).Float64()
	return f
}
