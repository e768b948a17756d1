package apperr

var (
	// not found
	ErrProductNotFound  = New(KindNotFound, "product_not_found", "product not found")
	ErrCategoryNotFound = New(KindNotFound, "category_not_found", "category not found")
	ErrItemNotFound     = New(KindNotFound, "item_not_found", "cart item not found")
	ErrCartNotFound     = New(KindNotFound, "cart_not_found", "cart not found")
	ErrOrderNotFound    = New(KindNotFound, "order_not_found", "order not found")
	ErrUserNotFound     = New(KindNotFound, "user_not_found", "user not found")

	// validation
	ErrValidation      = New(KindValidation, "validation_failed", "request validation failed")
	ErrInvalidQuantity = New(KindValidation, "invalid_quantity", "quantity must be between 1 and 99")
	ErrInvalidAddress  = New(KindValidation, "invalid_address", "shipping address is incomplete")
	ErrEmptyCart       = New(KindValidation, "empty_cart", "cart is empty")
	ErrInvalidStatus   = New(KindValidation, "invalid_status", "unknown order status")
	ErrCategoryCycle   = New(KindValidation, "category_cycle", "category parent would create a cycle")

	// conflict
	ErrInsufficientStock  = New(KindConflict, "insufficient_stock", "not enough stock for product")
	ErrQuantityExceeded   = New(KindConflict, "quantity_exceeded", "item quantity cannot exceed 99")
	ErrInvalidTransition  = New(KindConflict, "invalid_transition", "order status transition not allowed")
	ErrCartChanged        = New(KindConflict, "cart_changed", "cart was modified during checkout")
	ErrEmailTaken         = New(KindConflict, "email_taken", "email already registered")
	ErrSlugTaken          = New(KindConflict, "slug_taken", "slug already in use")
	ErrProductUnavailable = New(KindConflict, "product_unavailable", "product is not available")

	// auth
	ErrUnauthenticated = New(KindUnauthenticated, "unauthenticated", "authentication required")
	ErrForbidden       = New(KindForbidden, "forbidden", "admin access required")

	ErrInternal = New(KindInternal, "internal_error", "internal server error")
)
