// Package version exposes build information of the odm-grabber binary.
package version
