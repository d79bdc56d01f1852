// Package appfs embeds the assets the binaries ship with: goose migrations,
// email and web templates, and the common-password list.
package appfs

import "embed"

//go:embed migrations all:assets
var FS embed.FS
