package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("nonblank", validateNonBlank)
}

// ValidateRequest checks that a download request has a usable target and format.
// Only emptiness is checked; what the URL points to is up to the fetcher.
func ValidateRequest(req domain.DownloadRequest) error {
	switch req.Kind {
	case domain.KindSingle:
		if err := ValidateURL(req.URL); err != nil {
			return err
		}
	case domain.KindBatch:
		if err := validate.Var(req.ItemIDs, "required,min=1"); err != nil {
			return &errpkg.ValidationError{Field: "ids", Message: "at least one item id is required"}
		}
		for i, id := range req.ItemIDs {
			if err := validate.Var(id, "nonblank"); err != nil {
				return &errpkg.ValidationError{Field: fmt.Sprintf("ids[%d]", i), Message: "item id must not be empty"}
			}
		}
	default:
		return &errpkg.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown request kind %q", req.Kind)}
	}

	if !req.Format.IsValid() {
		return &errpkg.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported format %q", req.Format)}
	}
	return nil
}

// ValidateURL rejects an empty or blank URL.
func ValidateURL(u string) error {
	if err := validate.Var(u, "nonblank"); err != nil {
		return &errpkg.ValidationError{Field: "url", Message: "url must not be empty"}
	}
	return nil
}

// ValidatePath rejects an empty or blank file path.
func ValidatePath(p string) error {
	if err := validate.Var(p, "nonblank"); err != nil {
		return &errpkg.ValidationError{Field: "path", Message: "path must not be empty"}
	}
	return nil
}

func validateNonBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
