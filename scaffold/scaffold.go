// Package scaffold embeds the starter files written by "marginalia init":
// a config file, an initial snapshot with one post, its markdown source and
// the optional homepage and about pages.
package scaffold

import "embed"

// Templates contains all scaffold template files.
// Files use Go text/template syntax and have a .tmpl suffix.
//
//go:embed all:templates
var Templates embed.FS
