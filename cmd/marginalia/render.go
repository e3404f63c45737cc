package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eringen/marginalia"
	"github.com/eringen/marginalia/markdown"
	"github.com/eringen/marginalia/views"
)

func runRender(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	flags := newFlagSet("render", stderr)
	sidenotes := flags.BoolP("sidenotes", "s", false, "expand (:sidenote ... :sidenote) markers into margin notes")
	page := flags.BoolP("page", "p", false, "wrap the output in the page template")
	title := flags.StringP("title", "t", "", "page title (defaults to the file name)")
	templates := flags.String("templates", "", "directory of template overrides")
	highlight := flags.String("highlight", "", "syntax highlighting style")
	unsafeHTML := flags.Bool("unsafe-html", false, "pass raw HTML through")
	output := flags.StringP("output", "o", "", "write to file instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() > 1 {
		return fmt.Errorf("render takes at most one input file, got %d", flags.NArg())
	}

	src, name, err := readInput(flags.Arg(0), stdin)
	if err != nil {
		return err
	}

	opts := []markdown.Option{markdown.WithFootnotes()}
	if *highlight != "" {
		opts = append(opts, markdown.WithHighlighting(*highlight))
	}
	if *unsafeHTML {
		opts = append(opts, markdown.WithUnsafeHTML())
	}

	var pages marginalia.PageWrapper
	if *page {
		var viewOpts []views.Option
		if *templates != "" {
			viewOpts = append(viewOpts, views.WithTemplatesFS(os.DirFS(*templates)))
		}
		composer, err := views.NewComposer(viewOpts...)
		if err != nil {
			return err
		}
		pages = composer
	}

	b := marginalia.NewRender(markdown.New(opts...), pages).Markdown(src)
	if *sidenotes {
		b = b.Sidenotes()
	}
	if *page {
		t := *title
		if t == "" {
			t = name
		}
		b = b.IntoPage(t)
	}
	html, err := b.Render()
	if err != nil {
		return err
	}

	if *output == "" {
		_, err = io.WriteString(stdout, html)
		return err
	}
	return os.WriteFile(*output, []byte(html), 0o644)
}

// readInput reads the named file, or stdin when name is empty or "-".
// The returned name is the file's base name without extension.
func readInput(name string, stdin io.Reader) (string, string, error) {
	if name == "" || name == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, marginalia.MaxUploadContent+1))
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		if len(data) > marginalia.MaxUploadContent {
			return "", "", fmt.Errorf("input exceeds %d bytes", marginalia.MaxUploadContent)
		}
		return string(data), "Untitled", nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", "", err
	}
	base := filepath.Base(name)
	return string(data), strings.TrimSuffix(base, filepath.Ext(base)), nil
}
