package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Dokarii/TercerMomento/internal/errors"
)

// xlsxSignature is the local file header that starts every OOXML zip.
var xlsxSignature = []byte("PK\x03\x04")

// FileValidator checks the run's input, template and output locations
// before any processing starts.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return apperrors.NewNotFoundError(fmt.Sprintf("file %s", path)).WithContext("path", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to stat file %s", path), err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return apperrors.NewAppValidationError(fmt.Sprintf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("file %s is not readable", path), err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks the readings file: it must exist and be either a
// workbook or a CSV file. Workbooks must carry the zip signature.
func (v *FileValidator) ValidateInputFile(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return v.ValidateExcelFile(path)
	case ".csv":
		return v.ValidateCSVFile(path)
	default:
		v.logger.Error("Unsupported input file type",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return apperrors.NewInputError(
			fmt.Sprintf("file %s is neither a workbook nor a CSV file", path), nil)
	}
}

// ValidateExcelFile checks if a file is a valid Excel file
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return apperrors.NewInputError("readings workbook unavailable", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		v.logger.Error("File is not an Excel file",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewInputError(fmt.Sprintf("file %s is not an Excel file (extension: %s)", path, ext), nil)
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Refusing temporary Excel lock file",
			slog.String("file", path))
		return apperrors.NewInputError(fmt.Sprintf("file %s is a temporary Excel file", path), nil)
	}

	head, err := readHead(path, len(xlsxSignature))
	if err != nil {
		return apperrors.NewInputError(fmt.Sprintf("failed to read %s", path), err)
	}
	if !bytes.Equal(head, xlsxSignature) {
		v.logger.Error("Workbook is not a zip container",
			slog.String("file", path))
		return apperrors.NewInputError(fmt.Sprintf("file %s is not an xlsx workbook", path), nil)
	}

	return nil
}

// ValidateCSVFile checks if a file is a valid CSV file
func (v *FileValidator) ValidateCSVFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return apperrors.NewInputError("readings file unavailable", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" {
		v.logger.Error("File is not a CSV file",
			slog.String("file", path),
			slog.String("extension", ext))
		return apperrors.NewInputError(fmt.Sprintf("file %s is not a CSV file (extension: %s)", path, ext), nil)
	}

	return nil
}

// ValidateTemplateFile checks that the report template exists and is not
// empty.
func (v *FileValidator) ValidateTemplateFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return apperrors.NewTemplateError("report template unavailable", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return apperrors.NewTemplateError("report template unavailable", err)
	}
	if info.Size() == 0 {
		v.logger.Error("Report template is empty",
			slog.String("file", path))
		return apperrors.NewTemplateError(fmt.Sprintf("template %s is empty", path), nil)
	}

	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("failed to create output directory %s", dir), err)
	}

	// Verify it's writable by creating a test file
	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError(fmt.Sprintf("output directory %s is not writable", dir), err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		return buf[:read], nil
	}
	return buf, err
}
