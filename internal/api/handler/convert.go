package handler

import (
	"github.com/Dafoe17/retail-platform-backend/internal/api/dto"
	"github.com/Dafoe17/retail-platform-backend/internal/domain/model"
	"github.com/Dafoe17/retail-platform-backend/internal/pkg/util"
)

func convertUserModelToDTO(u *model.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func convertProductModelToDTO(p *model.Product) dto.ProductResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return dto.ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Price:       util.FormatMinor(p.Price),
		Stock:       p.Stock,
		CategoryID:  p.CategoryID,
		IsActive:    p.IsActive,
		IsAvailable: p.IsAvailable(),
		MainImage:   p.MainImage(),
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func convertCategoryModelToDTO(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		IsActive:    c.IsActive,
		CreatedAt:   c.CreatedAt,
	}
}

func convertCategoriesToDTO(cs []model.Category) []dto.CategoryResponse {
	out := make([]dto.CategoryResponse, 0, len(cs))
	for i := range cs {
		out = append(out, convertCategoryModelToDTO(&cs[i]))
	}
	return out
}

func convertCartViewToDTO(v *model.CartView) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(v.Items))
	for _, it := range v.Items {
		items = append(items, dto.CartItemResponse{
			ID:             it.ItemID,
			ProductID:      it.ProductID,
			ProductName:    it.ProductName,
			ProductSlug:    it.ProductSlug,
			ProductImage:   it.ProductImage,
			Quantity:       it.Quantity,
			UnitPrice:      util.FormatMinor(it.UnitPrice),
			Subtotal:       util.FormatMinor(it.Subtotal),
			IsAvailable:    it.IsAvailable,
			StockAvailable: it.StockAvailable,
			AddedAt:        it.AddedAt,
		})
	}
	return dto.CartResponse{
		ID:         v.ID,
		Items:      items,
		Total:      util.FormatMinor(v.Total),
		ItemsCount: v.ItemsCount,
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
	}
}

func convertAddressDTOToModel(a dto.ShippingAddressDTO) model.ShippingAddress {
	return model.ShippingAddress{
		RecipientName: a.RecipientName,
		Phone:         a.Phone,
		Country:       a.Country,
		City:          a.City,
		Street:        a.Street,
		Building:      a.Building,
		Apartment:     a.Apartment,
		PostalCode:    a.PostalCode,
	}
}

func convertOrderModelToDTO(o *model.Order) dto.OrderResponse {
	res := dto.OrderResponse{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		UserID:        o.UserID,
		Status:        string(o.Status),
		StatusDisplay: o.Status.Display(),
		Subtotal:      util.FormatMinor(o.Subtotal),
		ShippingCost:  util.FormatMinor(o.ShippingCost),
		Discount:      util.FormatMinor(o.Discount),
		Tax:           util.FormatMinor(o.Tax),
		Total:         util.FormatMinor(o.Total),
		ItemsCount:    o.ItemsCount(),
		ShippingAddress: dto.ShippingAddressDTO{
			RecipientName: o.RecipientName,
			Phone:         o.Phone,
			Country:       o.Country,
			City:          o.City,
			Street:        o.Street,
			Building:      o.Building,
			Apartment:     o.Apartment,
			PostalCode:    o.PostalCode,
		},
		Comment:   o.Comment,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
	for _, it := range o.Items {
		res.Items = append(res.Items, dto.OrderItemResponse{
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			ProductSlug: it.ProductSlug,
			Quantity:    it.Quantity,
			UnitPrice:   util.FormatMinor(it.UnitPrice),
			Subtotal:    util.FormatMinor(it.Subtotal),
		})
	}
	for _, h := range o.StatusHistory {
		res.StatusHistory = append(res.StatusHistory, dto.OrderStatusHistoryResponse{
			Status:    string(h.Status),
			Comment:   h.Comment,
			ChangedAt: h.ChangedAt,
		})
	}
	return res
}
