package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/eringen/marginalia/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName  string
	AdminKey  string
	Timestamp int64
}

func runInit(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("init", stderr)
	name := flags.String("name", "", "site name (defaults to the directory name in title case)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		fmt.Fprintln(stderr, "Usage: marginalia init [--name site-name] <dir>")
		return errUsage
	}
	dir := flags.Arg(0)
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("directory %q already exists", dir)
	}

	key, err := newAdminKey()
	if err != nil {
		return err
	}
	data := scaffoldData{
		SiteName:  *name,
		AdminKey:  key,
		Timestamp: time.Now().Unix(),
	}
	if data.SiteName == "" {
		data.SiteName = toTitle(filepath.Base(dir))
	}

	fmt.Fprintf(stdout, "Creating new marginalia site: %s\n\n", dir)
	if err := writeScaffold(dir, data, stdout); err != nil {
		return err
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Done! Next steps:")
	fmt.Fprintln(stdout)
	fmt.Fprintf(stdout, "  cd %s\n", dir)
	fmt.Fprintln(stdout, "  marginalia serve")
	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "The admin key is in config.yaml. Override it with MARGINALIA_ADMIN_KEY in production.")
	return nil
}

// writeScaffold renders every embedded template into dir, stripping the
// .tmpl suffix. "gitkeep" files become ".gitkeep".
func writeScaffold(dir string, data scaffoldData, stdout io.Writer) error {
	const root = "templates"
	return fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "gitkeep" {
			outPath = filepath.Join(filepath.Dir(outPath), ".gitkeep")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Option("missingkey=error").Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		if err := tmpl.Execute(f, data); err != nil {
			f.Close()
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return err
		}

		fmt.Fprintf(stdout, "  created %s\n", outPath)
		return nil
	})
}

func newAdminKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate admin key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-blog" -> "My Blog", "myblog" -> "Myblog"
func toTitle(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' })
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
