package types

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

type ExportSettings struct {
	Resolution string `json:"resolution" yaml:"resolution" validate:"required,resolution"`
	FPS        int    `json:"fps" yaml:"fps" validate:"required,min=1,max=120"`
	Format     string `json:"format" yaml:"format" validate:"required,oneof=mp4 mov webm"`
	Quality    string `json:"quality" yaml:"quality" validate:"required,oneof=low medium high ultra"`
}

func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Resolution: "1920x1080",
		FPS:        30,
		Format:     "mp4",
		Quality:    "high",
	}
}

// Merge overlays the non-zero fields of o onto s.
func (s ExportSettings) Merge(o ExportSettings) ExportSettings {
	if o.Resolution != "" {
		s.Resolution = o.Resolution
	}
	if o.FPS != 0 {
		s.FPS = o.FPS
	}
	if o.Format != "" {
		s.Format = o.Format
	}
	if o.Quality != "" {
		s.Quality = o.Quality
	}
	return s
}

func (s ExportSettings) Validate() error {
	if err := exportValidator().Struct(s); err != nil {
		return fmt.Errorf("export settings: %w", err)
	}
	return nil
}

var (
	reResolution  = regexp.MustCompile(`^[1-9]\d{1,4}x[1-9]\d{1,4}$`)
	validatorOnce sync.Once
	validate      *validator.Validate
)

func exportValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New()
		_ = validate.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
			return reResolution.MatchString(fl.Field().String())
		})
	})
	return validate
}
