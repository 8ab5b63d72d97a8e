package config

import (
	"io"
	"os"

	"github.com/hashicorp/hcl/v2"
	"golang.org/x/term"

	"github.com/deescovery/deescovery/internal/errors"
)

// WriteDiagnostics writes the HCL diagnostics carried by err to writer, with source
// snippets, and reports whether err carried any. Files are read from disk for snippets.
func WriteDiagnostics(writer io.Writer, err error, disableColor bool) bool {
	var diags hcl.Diagnostics
	if !errors.As(err, &diags) {
		return false
	}

	files := make(map[string]*hcl.File)

	for _, diag := range diags {
		if diag.Subject == nil {
			continue
		}

		filename := diag.Subject.Filename
		if _, ok := files[filename]; ok {
			continue
		}

		if content, err := os.ReadFile(filename); err == nil {
			files[filename] = &hcl.File{Bytes: content}
		}
	}

	termColor := !disableColor && term.IsTerminal(int(os.Stderr.Fd()))

	termWidth, _, sizeErr := term.GetSize(int(os.Stdout.Fd()))
	if sizeErr != nil {
		termWidth = 80
	}

	diagWriter := hcl.NewDiagnosticTextWriter(writer, files, uint(termWidth), termColor)

	return diagWriter.WriteDiagnostics(diags) == nil
}
