package marginalia

import (
	"embed"
	"errors"
	"io/fs"
	"os"

	"github.com/eringen/marginalia/views"
)

// EmbeddedAssets contains files shipped with the engine: favicon.svg and
// robots.txt. The stylesheet and quotes list come from the views package.
//
//go:embed embedded/*
var EmbeddedAssets embed.FS

// overlayFS opens a name from the first layer that has it.
type overlayFS []fs.FS

func (o overlayFS) Open(name string) (fs.File, error) {
	for _, layer := range o {
		f, err := layer.Open(name)
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
}

// staticFS layers the user's static dir over the embedded assets, so a
// site can replace style.css or favicon.svg by dropping a file in place.
func (a *App) staticFS() fs.FS {
	embedded, _ := fs.Sub(EmbeddedAssets, "embedded")
	assets, _ := fs.Sub(views.Assets(), "assets")
	return overlayFS{os.DirFS(a.Config.StaticDir), embedded, assets}
}
