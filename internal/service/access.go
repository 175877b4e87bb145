package service

import "storefront/internal/model"

// CanAccessOrder reports whether principal may read or change order: the
// owner and administrators may, nobody else.
func CanAccessOrder(order *model.Order, principal *model.Principal) bool {
	if order == nil || principal == nil {
		return false
	}
	return principal.IsAdmin || order.UserID == principal.UserID
}
