// Package utils holds small helpers shared by the loan service and the transport layer:
// path component sanitizing, atomic file writes, retry pauses and content type checks.
package utils
