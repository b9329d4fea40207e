package hash

// Hash computes and verifies digests of secrets.
type Hash interface {
	// Hash returns the digest of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the stored digest.
	Verify(hashed, str string) bool
}
