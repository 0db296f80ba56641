// Package content embeds the lodge's seed content so the service can run
// without a content directory.
package content

import (
	"embed"
	"io/fs"
)

//go:embed events/*.md gamemasters/*.md news/*.md
var seedFS embed.FS

// FS returns the embedded content tree. Its top-level directories are the
// content categories.
func FS() fs.FS {
	return seedFS
}
