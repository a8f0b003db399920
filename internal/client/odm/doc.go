// Package odm implements the HTTP side of the OverDrive loan protocol:
// license acquisition, ranged part downloads and early loan return.
// It performs single requests only; retries and file handling belong to the loan service.
package odm
