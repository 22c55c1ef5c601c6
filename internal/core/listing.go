package core

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/worldcheck-sorter/constants"
)

// ListPDFs returns the regular .pdf files directly inside dir, in name order.
func ListPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !constants.IsPDFExt(filepath.Ext(e.Name())) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out, nil
}
