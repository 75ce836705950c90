package shortcode

// EncodeNumbers exposes the multi-number encoder for compatibility tests.
func (c *Codec) EncodeNumbers(numbers ...uint64) string {
	return string(c.encode(numbers))
}

// DecodeNumbers exposes the multi-number decoder for compatibility tests.
func (c *Codec) DecodeNumbers(token string) ([]uint64, bool) {
	return c.decode(token)
}
