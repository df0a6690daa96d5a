package pointers

func To[T any](v T) *T { return &v }

// Clone returns a fresh pointer holding *p, or nil for nil.
func Clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
