package handler

import (
	"net/http"

	"github.com/Dafoe17/retail-platform-backend/internal/api"
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
	"github.com/Dafoe17/retail-platform-backend/internal/service"
)

type CatalogHandler struct {
	catalogService service.ICatalogService
}

func NewCatalogHandler(catalogService service.ICatalogService) *CatalogHandler {
	if catalogService == nil {
		panic("catalogService cannot be nil")
	}
	return &CatalogHandler{catalogService: catalogService}
}

// 管理員可看到停用商品
func isAdmin(r *http.Request) bool {
	id := util.GetIdentityFromContext(r.Context())
	return id != nil && id.IsAdmin()
}

func parseProductFilter(r *http.Request) (model.ProductFilter, error) {
	var (
		f   model.ProductFilter
		err error
	)
	q := r.URL.Query()
	if raw := q.Get("category_id"); raw != "" {
		id, err := queryInt(r, "category_id")
		if err != nil {
			return f, err
		}
		cid := int64(id)
		f.CategoryID = &cid
	}
	if f.MinPrice, err = queryMoney(r, "min_price"); err != nil {
		return f, err
	}
	if f.MaxPrice, err = queryMoney(r, "max_price"); err != nil {
		return f, err
	}
	if f.InStock, err = queryBool(r, "in_stock"); err != nil {
		return f, err
	}
	if f.Page, err = queryInt(r, "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = queryInt(r, "page_size"); err != nil {
		return f, err
	}
	f.Search = q.Get("search")
	f.SortBy = model.ProductSort(q.Get("sort"))
	if isAdmin(r) {
		if f.IncludeInactive, err = queryBool(r, "include_inactive"); err != nil {
			return f, err
		}
	}
	return f, nil
}

// ListProducts GET /products?category_id=&min_price=&max_price=&in_stock=&search=&sort=&page=&page_size=
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := parseProductFilter(r)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	page, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, pageOf(page, convertProductModelToDTO))
}

// GetProduct GET /products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	product, err := h.catalogService.GetProduct(r.Context(), id, isAdmin(r))
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertProductModelToDTO(product))
}

func productInputFromDTO(req dto.ProductDTO) (service.ProductInput, error) {
	price, err := moneyToMinor("price", *req.Price)
	if err != nil {
		return service.ProductInput{}, err
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	return service.ProductInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		Price:       price,
		Stock:       req.Stock,
		CategoryID:  req.CategoryID,
		IsActive:    active,
		Images:      req.Images,
	}, nil
}

// CreateProduct POST /products (admin)
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := productInputFromDTO(req)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	product, err := h.catalogService.CreateProduct(r.Context(), input)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, convertProductModelToDTO(product))
}

// UpdateProduct PUT /products/{id} (admin), stock 未給時不變
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.ProductDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	input, err := productInputFromDTO(req)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	product, err := h.catalogService.UpdateProduct(r.Context(), id, input)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertProductModelToDTO(product))
}

// DeactivateProduct DELETE /products/{id} (admin)
func (h *CatalogHandler) DeactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	if err := h.catalogService.DeactivateProduct(r.Context(), id); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.NoContent(w)
}

// ListCategories GET /categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.catalogService.ListCategories(r.Context())
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertCategoriesToDTO(cats))
}

// ListCategoryChildren GET /categories/{id}/children
func (h *CatalogHandler) ListCategoryChildren(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	cats, err := h.catalogService.ListCategoryChildren(r.Context(), id)
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.SuccessJSON(w, convertCategoriesToDTO(cats))
}

// CreateCategory POST /categories (admin)
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req dto.CategoryDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	cat, err := h.catalogService.CreateCategory(r.Context(), service.CategoryInput{
		Name:        req.Name,
		Slug:        req.Slug,
		Description: req.Description,
		ParentID:    req.ParentID,
	})
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.CreatedJSON(w, convertCategoryModelToDTO(cat))
}

// SetCategoryParent PUT /categories/{id}/parent (admin)
func (h *CatalogHandler) SetCategoryParent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	var req dto.SetParentDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.catalogService.SetCategoryParent(r.Context(), id, req.ParentID); err != nil {
		api.ErrorJSON(w, r, err)
		return
	}
	api.NoContent(w)
}
