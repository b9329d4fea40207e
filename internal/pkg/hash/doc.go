// Package hash provides keyed digests for secrets kept at rest.
//
// Short-lived secrets such as one-time codes are stored only as an HMAC digest
// and compared in constant time, so a leaked store does not reveal live codes.
package hash
