package gfx

// Resources is an owning stack of releasers. Setup code tracks each resource as it
// is acquired; on a failure path a single Release frees everything acquired so far
// in reverse order. Resources itself is a Releaser so ownership can be handed on.
type Resources struct {
	items []Releaser
}

// Track takes ownership of r and returns it. Nil is ignored.
func (rs *Resources) Track(r Releaser) Releaser {
	if r == nil {
		return nil
	}
	rs.items = append(rs.items, r)
	return r
}

// Len returns the number of owned resources.
func (rs *Resources) Len() int { return len(rs.items) }

// Release frees owned resources in reverse acquisition order and empties the stack.
func (rs *Resources) Release() {
	for i := len(rs.items) - 1; i >= 0; i-- {
		rs.items[i].Release()
		rs.items[i] = nil
	}
	rs.items = rs.items[:0]
}

// Adopt moves everything owned by other onto rs, leaving other empty.
func (rs *Resources) Adopt(other *Resources) {
	rs.items = append(rs.items, other.items...)
	other.items = nil
}
