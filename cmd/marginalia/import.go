package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/frontmatter"

	"github.com/eringen/marginalia"
)

// frontMatter holds the post fields read from a markdown file header.
// Date accepts YAML/TOML dates as well as quoted strings.
type frontMatter struct {
	Title     string `yaml:"title" toml:"title" json:"title"`
	Slug      string `yaml:"slug" toml:"slug" json:"slug"`
	Date      any    `yaml:"date" toml:"date" json:"date"`
	Timestamp int64  `yaml:"timestamp" toml:"timestamp" json:"timestamp"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

func runImport(args []string, stdout, stderr io.Writer) error {
	flags := newFlagSet("import", stderr)
	configPath := flags.StringP("config", "c", marginalia.EnvOr("MARGINALIA_CONFIG", "config.yaml"), "path to the YAML config file")
	overwrite := flags.Bool("overwrite", false, "replace posts whose slug already exists")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		fmt.Fprintln(stderr, "Usage: marginalia import [--config file] [--overwrite] <file.md|dir>...")
		return errUsage
	}

	logger := newLogger(stderr)
	path := *configPath
	if _, err := os.Stat(path); err != nil && !flags.Changed("config") {
		path = ""
	}
	cfg, err := marginalia.LoadConfig(path)
	if err != nil {
		return err
	}

	files, err := collectMarkdown(flags.Args())
	if err != nil {
		return err
	}

	var imported, skipped, failed int
	err = marginalia.WithStore(cfg.StoreConfig(), func(s *marginalia.Store) error {
		for _, file := range files {
			u, err := readPostFile(file)
			if err != nil {
				logger.Errorf("%s: %v", file, err)
				failed++
				continue
			}
			u.Overwrite = *overwrite
			if _, err := s.SaveUpload(u); err != nil {
				if errors.Is(err, marginalia.ErrAlreadyExists) {
					logger.Warnf("%s: slug %q exists, skipped", file, u.Slug)
					skipped++
					continue
				}
				logger.Errorf("%s: %v", file, err)
				failed++
				continue
			}
			imported++
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "imported %d, skipped %d, failed %d\n", imported, skipped, failed)
	if failed > 0 {
		return fmt.Errorf("%d files failed to import", failed)
	}
	return nil
}

// collectMarkdown expands directories into the .md files beneath them.
// Explicit file arguments are kept as given.
func collectMarkdown(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".md") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// readPostFile parses a markdown file with optional frontmatter into an
// upload. Missing fields fall back to the file name and modification time.
func readPostFile(path string) (marginalia.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return marginalia.Upload{}, err
	}
	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return marginalia.Upload{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	u := marginalia.Upload{
		Title:    strings.TrimSpace(fm.Title),
		Slug:     strings.TrimSpace(fm.Slug),
		Content:  string(body),
		Encoding: marginalia.EncodingRaw,
	}
	if u.Title == "" {
		u.Title = base
	}
	if u.Slug == "" {
		u.Slug = marginalia.Slugify(base)
	}

	switch {
	case fm.Timestamp > 0:
		u.Timestamp = fm.Timestamp
	case fm.Date != nil:
		ts, err := parseDate(fm.Date)
		if err != nil {
			return marginalia.Upload{}, err
		}
		u.Timestamp = ts
	default:
		info, err := os.Stat(path)
		if err != nil {
			return marginalia.Upload{}, err
		}
		u.Timestamp = info.ModTime().Unix()
	}
	return u, nil
}

func parseDate(v any) (int64, error) {
	switch d := v.(type) {
	case time.Time:
		return d.Unix(), nil
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Unix(), nil
			}
		}
		return 0, fmt.Errorf("unrecognized date %q", d)
	default:
		return 0, fmt.Errorf("unsupported date value %v", v)
	}
}
