// Package loan implements the OverDrive loan workflow on top of the odm client.
// It reads loan manifests, keeps the client identity, acquires and caches licenses,
// downloads the audiobook parts with resume and retry, and releases loans early.
// Licenses and extracted metadata are memoized in files next to the manifest.
package loan
