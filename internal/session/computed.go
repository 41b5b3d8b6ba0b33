package session

// ComputedSet records the (repository, filter) pairs whose issue count has
// been scheduled or written in the current search.
type ComputedSet map[string]struct{}

// Claim marks key computed. It returns false if key was already claimed.
func (c ComputedSet) Claim(key string) bool {
	if _, ok := c[key]; ok {
		return false
	}
	c[key] = struct{}{}
	return true
}

// Has reports whether key has been claimed.
func (c ComputedSet) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// Release removes key so it can be claimed again.
func (c ComputedSet) Release(key string) {
	delete(c, key)
}

// Reset removes every key.
func (c ComputedSet) Reset() {
	clear(c)
}
