package domain

// OrderOr returns *order, or fallback when order is nil. Sibling indexes are
// the usual fallback.
func OrderOr(order *int, fallback int) int {
	if order == nil {
		return fallback
	}
	return *order
}

// NonNil returns s, or an empty slice when s is nil, so JSON encodes [] rather than null.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
