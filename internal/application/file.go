package application

import (
	"fmt"
	"path/filepath"
	"strings"

	"jobboard-portal/internal/models"
)

// Error codes of resume constraint failures.
const (
	CodeResumeRequired     = "RESUME_REQUIRED"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeFileTypeNotAllowed = "FILE_TYPE_NOT_ALLOWED"
)

// FileError is a resume constraint violation. It is reported separately
// from form validation failures.
type FileError struct {
	Code    string
	Message string
}

func (e *FileError) Error() string {
	return e.Message
}

// FileRules constrains the resume attachment.
type FileRules struct {
	MaxSize           int64
	AllowedExtensions []string
}

func DefaultFileRules() FileRules {
	return FileRules{
		MaxSize:           5 << 20,
		AllowedExtensions: []string{".pdf", ".doc", ".docx"},
	}
}

// Check returns a *FileError when fd is missing or violates the rules.
func (r FileRules) Check(fd *models.FileDescriptor) error {
	if fd == nil || fd.Name == "" {
		return &FileError{Code: CodeResumeRequired, Message: "Resume is required"}
	}
	return r.CheckFile(fd.Name, fd.Size)
}

// CheckFile validates a file by name and size before anything is stored.
func (r FileRules) CheckFile(name string, size int64) error {
	if r.MaxSize > 0 && size > r.MaxSize {
		return &FileError{
			Code:    CodeFileTooLarge,
			Message: fmt.Sprintf("File size must be less than %s", formatSize(r.MaxSize)),
		}
	}
	if len(r.AllowedExtensions) > 0 && !r.allowed(filepath.Ext(name)) {
		return &FileError{
			Code:    CodeFileTypeNotAllowed,
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(r.AllowedExtensions, ", ")),
		}
	}
	return nil
}

func (r FileRules) allowed(ext string) bool {
	for _, a := range r.AllowedExtensions {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func formatSize(n int64) string {
	if n >= 1<<20 && n%(1<<20) == 0 {
		return fmt.Sprintf("%dMB", n>>20)
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return fmt.Sprintf("%dKB", n>>10)
	}
	return fmt.Sprintf("%d bytes", n)
}
