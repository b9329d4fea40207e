// Package jwt issues and verifies HS512 session tokens.
//
// A token carries the account UID as subject together with the canonical
// phone. Verified claims travel through request contexts via SetAuth/GetAuth.
package jwt
