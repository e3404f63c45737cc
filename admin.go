package marginalia

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// uploadResponse is returned by POST /admin/add.
type uploadResponse struct {
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Durable bool   `json:"durable"` // false if the snapshot checkpoint failed
}

func (a *App) handleAdminAdd(c echo.Context) error {
	var u Upload
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	post, err := a.Store.SaveUpload(u)
	if err != nil {
		return err
	}
	a.Cache.Invalidate()

	durable := true
	if err := a.Store.Checkpoint(); err != nil {
		durable = false
		c.Logger().Errorf("checkpoint after upload of %s: %v", post.Slug, err)
	}
	c.Logger().Infof("uploaded post %s (overwrite=%t)", post.Slug, u.Overwrite)

	code := http.StatusCreated
	if u.Overwrite {
		code = http.StatusOK
	}
	return c.JSON(code, uploadResponse{
		Slug:    post.Slug,
		URL:     BuildURL(a.Config.URL, "blog", post.Slug),
		Durable: durable,
	})
}
