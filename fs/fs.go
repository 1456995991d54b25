// Package appfs embeds the static assets shipped inside the binary.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
