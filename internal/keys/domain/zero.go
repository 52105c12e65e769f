package domain

// Zero overwrites a byte slice so key material does not linger in memory.
func Zero(b []byte) {
	if b == nil {
		return
	}
	for i := range b {
		b[i] = 0
	}
}
