package marginalia

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	maxImageWidth  = 800
	jpegQuality    = 80
	maxImageUpload = 10 << 20 // 10MB
	uploadsSubdir  = "uploads"
)

// Image describes an uploaded image under {StaticDir}/uploads.
type Image struct {
	Filename     string `json:"filename"`
	OriginalName string `json:"original_name,omitempty"`
	URL          string `json:"url"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Size         int64  `json:"size"`
	UploadedAt   string `json:"uploaded_at"`
}

// processImage decodes an image from src, resizes it down to maxImageWidth
// if wider, and encodes it as JPEG.
func processImage(src io.Reader, originalName string) (Image, []byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return Image{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxImageWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Image{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	name := slugifyFilename(originalName)
	if name == "" {
		name = "image"
	}
	return Image{
		Filename:     name + ".jpg",
		OriginalName: originalName,
		Width:        w,
		Height:       h,
		Size:         int64(buf.Len()),
		UploadedAt:   time.Now().UTC().Format(time.RFC3339),
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return Slugify(base)
}

func (a *App) uploadsDir() string {
	return filepath.Join(a.Config.StaticDir, uploadsSubdir)
}

// uniqueFilename appends a counter until the name is free in dir.
func uniqueFilename(dir, filename string) string {
	base := strings.TrimSuffix(filename, ".jpg")
	candidate := filename
	for counter := 2; ; counter++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); errors.Is(err, fs.ErrNotExist) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
}

func (a *App) handleImageUpload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no image file provided")
	}
	if file.Size > maxImageUpload {
		return echo.NewHTTPError(http.StatusBadRequest, "file too large (max 10MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	img, data, err := processImage(src, file.Filename)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid image: "+err.Error())
	}

	dir := a.uploadsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	img.Filename = uniqueFilename(dir, img.Filename)
	if err := os.WriteFile(filepath.Join(dir, img.Filename), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	img.URL = "/public/" + uploadsSubdir + "/" + img.Filename
	c.Logger().Infof("uploaded image %s (%dx%d)", img.Filename, img.Width, img.Height)
	return c.JSON(http.StatusCreated, img)
}

func (a *App) handleImageList(c echo.Context) error {
	images, err := listImages(a.uploadsDir())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, images)
}

// listImages returns the JPEGs in dir, newest first.
func listImages(dir string) ([]Image, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []Image{}, nil
	}
	if err != nil {
		return nil, err
	}
	images := []Image{}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".jpg") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		img := Image{
			Filename:   e.Name(),
			URL:        "/public/" + uploadsSubdir + "/" + e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime().UTC().Format(time.RFC3339),
		}
		if f, err := os.Open(filepath.Join(dir, e.Name())); err == nil {
			if cfg, _, err := image.DecodeConfig(f); err == nil {
				img.Width, img.Height = cfg.Width, cfg.Height
			}
			f.Close()
		}
		images = append(images, img)
	}
	sort.Slice(images, func(i, j int) bool {
		return images[i].UploadedAt > images[j].UploadedAt
	})
	return images, nil
}
