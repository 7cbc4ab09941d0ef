package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/discodoc"
)

// LoadError represents an error that occurred while loading a DiSCO
// document.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadedDocument is one parsed document file.
type loadedDocument struct {
	Path  string
	DiSCO *codec.DiSCO
}

// LoadDocuments parses the DiSCO document at path. A directory yields
// every .cue file below it, in lexical order. All files are parsed before
// any error is returned.
func LoadDocuments(path string) ([]loadedDocument, []error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("document not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
	}

	files := []string{path}
	if info.IsDir() {
		if files, err = FindCUEFiles(path); err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("failed to scan %s: %v", path, err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no .cue files in %s", path)}}
		}
	}

	var docs []loadedDocument
	var errs []error
	for _, f := range files {
		d, err := discodoc.LoadFile(f)
		if err != nil {
			errs = append(errs, convertDocumentError(err, f))
			continue
		}
		docs = append(docs, loadedDocument{Path: f, DiSCO: d})
	}
	return docs, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertDocumentError converts a discodoc error to a LoadError with
// position info.
func convertDocumentError(err error, path string) *LoadError {
	var docErr *discodoc.Error
	if errors.As(err, &docErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(docErr.Field),
			Message: docErr.Message,
			Pos:     docErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: fmt.Sprintf("%s: %v", path, err),
	}
}

// Error code constants for failures that happen before the versioning
// service is called. Service rejections use the versioning code instead.
const (
	ErrCodeGeneric    = "E001" // Generic/unknown error
	ErrCodeScanError  = "E002" // Directory scan error
	ErrCodeNoFiles    = "E003" // No CUE files found
	ErrCodeLoadFailed = "E004" // CUE load failed
	ErrCodeNotFound   = "E005" // Path not found
	ErrCodeBadArg     = "E006" // Invalid flag or argument

	// Document errors
	ErrCodeAggregates  = "E101" // Missing or invalid aggregates
	ErrCodeStatements  = "E102" // Invalid related statement
	ErrCodePrefixes    = "E103" // Invalid prefix declaration
	ErrCodeDescription = "E104" // Invalid description
	ErrCodeIdentifier  = "E105" // Invalid id, creator or provider id
)

// MapFieldToErrorCode maps a document error field to an error code.
// Fields are matched on their first element below disco, so
// "statements[2]" and "disco.aggregates.0" both count.
func MapFieldToErrorCode(field string) string {
	field = strings.TrimPrefix(field, "disco.")
	if i := strings.IndexAny(field, ".["); i >= 0 {
		field = field[:i]
	}
	switch field {
	case "aggregates":
		return ErrCodeAggregates
	case "statements":
		return ErrCodeStatements
	case "prefixes":
		return ErrCodePrefixes
	case "description":
		return ErrCodeDescription
	case "id", "creator", "provider_id", "generated_by":
		return ErrCodeIdentifier
	default:
		return ErrCodeGeneric
	}
}
