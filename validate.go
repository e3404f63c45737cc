package marginalia

import (
	"fmt"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MaxSlugLength bounds slug length; slugs double as file names.
const MaxSlugLength = 200

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

var slugRules = []validation.Rule{
	validation.Required,
	validation.Length(1, MaxSlugLength),
	validation.Match(slugPattern).Error("must be lowercase letters, digits, '-' or '_'"),
}

// ValidateSlug reports whether slug is usable as a key and file name.
func ValidateSlug(slug string) error {
	if err := validation.Validate(slug, slugRules...); err != nil {
		return fmt.Errorf("%w: slug: %v", ErrInvalidPost, err)
	}
	return nil
}

// Validate checks the metadata invariants.
func (m PostMetadata) Validate() error {
	err := validation.ValidateStruct(&m,
		validation.Field(&m.Title, validation.Required),
		validation.Field(&m.Slug, slugRules...),
		validation.Field(&m.Timestamp, validation.Min(int64(0))),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPost, err)
	}
	return nil
}

// Validate checks p's metadata; content is checked at insert time.
func (p Post) Validate() error {
	return p.Metadata().Validate()
}
