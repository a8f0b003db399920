// Package app wires the loan service to the command line.
// It splits positional arguments into commands and manifest paths,
// applies every command to every manifest and prints the session summary.
package app
