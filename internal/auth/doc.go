// Package auth handles admin credential verification and the redis-backed
// login sessions guarding the /admin area. Passwords are stored as bcrypt
// hashes; session tokens are opaque random strings mapped to user IDs with
// a TTL.
package auth
