package usecase

import (
	"github.com/Mavimarmara/likeme-back-end-sub002/internal/domain/model"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// 金額計算はすべてdecimalで行う（floatは使わない）。
// 2桁への丸めはゲートウェイ送信の直前だけ。内部の積み上げでは丸めない。

// centPrecisionはセント未満の端数を持たない金額かを返す。
// 末尾ゼロ（"0.100"など）は許容する。
func centPrecision(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

type PricedItem struct {
	Product   model.Product
	Quantity  int64
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	LineTotal decimal.Decimal
}

type OrderAggregate struct {
	Items        []PricedItem
	Subtotal     decimal.Decimal
	ShippingCost decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
}

// BuildOrderAggregateは検証済み明細から金額を組み立てる。
// 明細合計 = 単価×数量 − 値引き（下限0）
// Total = Subtotal + ShippingCost + Tax
func BuildOrderAggregate(items []ValidCartItem, shippingCost decimal.Decimal, taxRatePct decimal.Decimal) OrderAggregate {
	priced := lo.Map(items, func(it ValidCartItem, _ int) PricedItem {
		unit := decimal.Zero
		if it.Product.Price != nil {
			unit = *it.Product.Price
		}

		line := unit.Mul(decimal.NewFromInt(it.Quantity)).Sub(it.Discount)
		if line.IsNegative() {
			line = decimal.Zero
		}

		return PricedItem{
			Product:   it.Product,
			Quantity:  it.Quantity,
			UnitPrice: unit,
			Discount:  it.Discount,
			LineTotal: line,
		}
	})

	subtotal := decimal.Zero
	for _, it := range priced {
		subtotal = subtotal.Add(it.LineTotal)
	}

	tax := subtotal.Mul(taxRatePct).Div(decimal.NewFromInt(100))
	total := subtotal.Add(shippingCost).Add(tax)

	return OrderAggregate{
		Items:        priced,
		Subtotal:     subtotal,
		ShippingCost: shippingCost,
		Tax:          tax,
		Total:        total,
	}
}
