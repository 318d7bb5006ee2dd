package resources

import "embed"

// FS carries resources that ship inside the binary: schema migrations and
// the default ad-signal table.
//
//go:embed migrations signals.yml
var FS embed.FS
