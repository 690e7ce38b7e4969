// Package sanitizer normalizes request input before validation and storage.
//
// All functions are idempotent and never fail: input that cannot be
// normalized is returned trimmed but otherwise unchanged, and validation
// decides whether it is acceptable.
package sanitizer
