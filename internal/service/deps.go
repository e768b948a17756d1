package service

import "context"

// ProductCacheInvalidator 交易提交後清除被異動商品的快取
type ProductCacheInvalidator interface {
	InvalidateProducts(ctx context.Context, ids ...int64)
}

type NopProductCacheInvalidator struct{}

func (NopProductCacheInvalidator) InvalidateProducts(context.Context, ...int64) {}
