package pdftext

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Validate runs a relaxed structural check and rejects documents without pages.
func Validate(path string) error {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}
	n, err := api.PageCountFile(path)
	if err != nil {
		return fmt.Errorf("page count %s: %w", path, err)
	}
	if n == 0 {
		return ErrNoPages
	}
	return nil
}
