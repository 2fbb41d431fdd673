package report

import (
	"log/slog"
	"os"
	"path/filepath"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// Composer fills the report template and writes the HTML file.
type Composer struct {
	logger *slog.Logger
}

// NewComposer creates a composer.
func NewComposer(logger *slog.Logger) *Composer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Composer{logger: logger.With(slog.String("component", "report"))}
}

// Compose reads templatePath, substitutes values and writes the result to
// outputPath, replacing any existing file. Nothing is written when a
// placeholder is unmapped.
func (c *Composer) Compose(templatePath, outputPath string, values map[string]string) error {
	src, err := os.ReadFile(templatePath)
	if err != nil {
		return apperrors.NewTemplateError("failed to read template", err).
			WithContext("path", templatePath)
	}

	tmpl, err := ParseTemplate(string(src))
	if err != nil {
		return withPath(err, templatePath)
	}

	html, err := tmpl.Execute(values)
	if err != nil {
		return withPath(err, templatePath)
	}

	if err := writeFile(outputPath, html); err != nil {
		return err
	}

	c.logger.Info("Report written",
		slog.String("path", outputPath),
		slog.Int("placeholders", len(tmpl.Placeholders())),
		slog.Int("bytes", len(html)))
	return nil
}

func writeFile(path, content string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewTemplateError("failed to create output directory", err).
			WithContext("path", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return apperrors.NewTemplateError("failed to create report", err).
			WithContext("path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = apperrors.NewTemplateError("failed to close report", cerr).
				WithContext("path", path)
		}
	}()

	if _, err := f.WriteString(content); err != nil {
		return apperrors.NewTemplateError("failed to write report", err).
			WithContext("path", path)
	}
	return nil
}

func withPath(err error, path string) error {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr.WithContext("template", path)
	}
	return err
}
