// Package http provides http.RoundTripper wrappers used by the loan client:
// one that presents the OverDrive client headers and one that dumps traffic at debug level.
package http
