// Package content embeds the documentation tree so the server ships as a
// single binary. PATTERNS_CONTENT_ROOT replaces it with a directory on disk.
package content

import "embed"

//go:embed docs
var Files embed.FS
