// Package library tells media servers to rescan after new items land.
//
// Jellyfin is refreshed with a single POST /Library/Refresh. Plex section
// titles from configuration are resolved to section keys once per Plex value
// and each resolved section is refreshed.
package library
