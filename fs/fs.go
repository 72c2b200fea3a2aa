// Package appfs embeds files needed at runtime so deploys ship a single binary.
package appfs

import "embed"

//go:embed migrations
var FS embed.FS
