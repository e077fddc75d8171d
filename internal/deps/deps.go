package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"vellum/internal/config"
)

// Requirement defines an external dependency Vellum relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Requirements returns the external binaries the pipeline needs at runtime.
// Tesseract is linked through gosseract but its language data ships with the
// tesseract install, so the binary check doubles as an install check.
func Requirements(cfg *config.Config) []Requirement {
	pdftoppm := "pdftoppm"
	if cfg != nil && strings.TrimSpace(cfg.OCR.PdftoppmBin) != "" {
		pdftoppm = cfg.OCR.PdftoppmBin
	}
	return []Requirement{
		{Name: "pdftoppm", Command: pdftoppm, Description: "Rasterizes PDF pages for OCR (poppler-utils)"},
		{Name: "tesseract", Command: "tesseract", Description: "OCR engine used for scanned documents"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
