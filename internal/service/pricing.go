package service

import (
	"context"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
)

// PriceQuote 結帳時計算出的附加金額, 皆為最小貨幣單位
type PriceQuote struct {
	ShippingCost int64
	Discount     int64
	Tax          int64
}

// PricingPolicy 運費/折扣/稅金規則, 在結帳交易內呼叫
type PricingPolicy interface {
	Quote(ctx context.Context, subtotal int64, items []model.CartItem) (PriceQuote, error)
}

// ZeroPricingPolicy 不收運費 不折扣 不課稅
type ZeroPricingPolicy struct{}

func (ZeroPricingPolicy) Quote(context.Context, int64, []model.CartItem) (PriceQuote, error) {
	return PriceQuote{}, nil
}

// FlatRatePricingPolicy 固定運費, 滿額免運, 稅金以萬分比計算 (四捨五入)
type FlatRatePricingPolicy struct {
	ShippingCost          int64
	FreeShippingThreshold int64 // 0 表示沒有免運門檻
	TaxBasisPoints        int64
}

func (p FlatRatePricingPolicy) Quote(_ context.Context, subtotal int64, _ []model.CartItem) (PriceQuote, error) {
	var quote PriceQuote
	quote.ShippingCost = p.ShippingCost
	if p.FreeShippingThreshold > 0 && subtotal >= p.FreeShippingThreshold {
		quote.ShippingCost = 0
	}
	if p.TaxBasisPoints > 0 {
		quote.Tax = (subtotal*p.TaxBasisPoints + 5000) / 10000
	}
	return quote, nil
}
