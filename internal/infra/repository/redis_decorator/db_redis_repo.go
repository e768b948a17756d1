package redis_decorator

import (
	"context"
	"sort"

	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/infra/repository/db"
	"github.com/rs/zerolog/log"
)

/*
cache-aside, 只加速商品展示用的讀取.
db 是唯一真相來源: 購物車異動與結帳一律直接讀 db,
redis 失敗時退回 db, 寫入後刪除快取.
*/
type CacheAsideProductRepo struct {
	db.IProductRepository
	cache *ProductCache
}

func NewCacheAsideProductRepo(repo db.IProductRepository, cache *ProductCache) *CacheAsideProductRepo {
	if repo == nil {
		panic("NewCacheAsideProductRepo: product repository cannot be nil")
	}
	if cache == nil {
		panic("NewCacheAsideProductRepo: cache cannot be nil")
	}
	return &CacheAsideProductRepo{IProductRepository: repo, cache: cache}
}

func (p *CacheAsideProductRepo) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	cached, err := p.cache.Get(ctx, id)
	if err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("product cache read failed")
	}
	if cached != nil {
		return cached, nil
	}

	product, err := p.IProductRepository.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.cache.Set(ctx, *product); err != nil {
		log.Warn().Err(err).Int64("product_id", id).Msg("product cache fill failed")
	}
	return product, nil
}

func (p *CacheAsideProductRepo) GetProductsByIDs(ctx context.Context, ids []int64) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	hits, misses, err := p.cache.MGet(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("product cache mget failed")
		return p.IProductRepository.GetProductsByIDs(ctx, ids)
	}

	if len(misses) > 0 {
		loaded, err := p.IProductRepository.GetProductsByIDs(ctx, misses)
		if err != nil {
			return nil, err
		}
		if err := p.cache.Set(ctx, loaded...); err != nil {
			log.Warn().Err(err).Msg("product cache fill failed")
		}
		for _, prod := range loaded {
			hits[prod.ID] = prod
		}
	}

	out := make([]model.Product, 0, len(hits))
	for _, prod := range hits {
		out = append(out, prod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (p *CacheAsideProductRepo) UpdateProduct(ctx context.Context, product *model.Product) error {
	if err := p.IProductRepository.UpdateProduct(ctx, product); err != nil {
		return err
	}
	p.InvalidateProducts(ctx, product.ID)
	return nil
}

func (p *CacheAsideProductRepo) DeactivateProduct(ctx context.Context, id int64) error {
	if err := p.IProductRepository.DeactivateProduct(ctx, id); err != nil {
		return err
	}
	p.InvalidateProducts(ctx, id)
	return nil
}

func (p *CacheAsideProductRepo) SetStock(ctx context.Context, id int64, stock int64) error {
	if err := p.IProductRepository.SetStock(ctx, id, stock); err != nil {
		return err
	}
	p.InvalidateProducts(ctx, id)
	return nil
}

func (p *CacheAsideProductRepo) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	if err := p.IProductRepository.DecrementStock(ctx, productID, quantity); err != nil {
		return err
	}
	p.InvalidateProducts(ctx, productID)
	return nil
}

func (p *CacheAsideProductRepo) RestoreStock(ctx context.Context, productID int64, quantity int) error {
	if err := p.IProductRepository.RestoreStock(ctx, productID, quantity); err != nil {
		return err
	}
	p.InvalidateProducts(ctx, productID)
	return nil
}

// InvalidateProducts 刪除快取, 失敗只記 log
func (p *CacheAsideProductRepo) InvalidateProducts(ctx context.Context, ids ...int64) {
	if err := p.cache.Delete(ctx, ids...); err != nil {
		log.Error().Err(err).Ints64("product_ids", ids).Msg("product cache invalidation failed")
	}
}
