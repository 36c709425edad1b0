package billing

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/shared"
)

const (
	// MaxFileSize is the largest single document accepted
	MaxFileSize int64 = 10 << 20
	// MaxUploadSize is the largest combined size of one upload
	MaxUploadSize int64 = 50 << 20

	pdfContentType = "application/pdf"
)

// ProjectFile is a PDF document attached to a project. The content lives in
// object storage under StorageKey.
type ProjectFile struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	Title       string
	FileName    string
	ContentType string
	Size        int64
	StorageKey  string
	UploadedBy  *uuid.UUID
	UploadedAt  time.Time
}

// FileUpload describes one incoming document before it is stored
type FileUpload struct {
	FileName    string
	ContentType string
	Size        int64
}

// PlanUpload validates a batch of uploads and builds the file records. Titles
// are optional, but when given there must be one per file; an empty title
// falls back to the file name without its extension.
func PlanUpload(projectID uuid.UUID, uploads []FileUpload, titles []string, uploadedBy *uuid.UUID) ([]ProjectFile, error) {
	if len(uploads) == 0 {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "No files provided")
	}
	if len(titles) > 0 && len(titles) != len(uploads) {
		return nil, shared.NewDomainError("VALIDATION_ERROR", "Number of titles must match number of files")
	}

	var total int64
	files := make([]ProjectFile, 0, len(uploads))
	now := time.Now()
	for i, u := range uploads {
		if !isPDF(u) {
			return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("File %s is not a PDF", u.FileName))
		}
		if u.Size > MaxFileSize {
			return nil, shared.NewDomainError("VALIDATION_ERROR", fmt.Sprintf("File %s exceeds the 10MB limit", u.FileName))
		}
		total += u.Size
		if total > MaxUploadSize {
			return nil, shared.NewDomainError("VALIDATION_ERROR", "Total upload size exceeds the 50MB limit")
		}

		title := ""
		if len(titles) > 0 {
			title = strings.TrimSpace(titles[i])
		}
		if title == "" {
			title = DefaultTitle(u.FileName)
		}

		id := uuid.New()
		files = append(files, ProjectFile{
			ID:          id,
			ProjectID:   projectID,
			Title:       title,
			FileName:    u.FileName,
			ContentType: pdfContentType,
			Size:        u.Size,
			StorageKey:  StorageKey(projectID, id),
			UploadedBy:  uploadedBy,
			UploadedAt:  now,
		})
	}
	return files, nil
}

// Rename changes the display title of a file
func (f *ProjectFile) Rename(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return shared.NewDomainError("VALIDATION_ERROR", "Title cannot be empty")
	}
	if len(title) > 255 {
		return shared.NewDomainError("VALIDATION_ERROR", "Title cannot exceed 255 characters")
	}
	f.Title = title
	return nil
}

// DefaultTitle strips a trailing .pdf from a file name
func DefaultTitle(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if strings.EqualFold(path.Ext(base), ".pdf") {
		return base[:len(base)-len(".pdf")]
	}
	return base
}

// StorageKey is the object key of a project file
func StorageKey(projectID, fileID uuid.UUID) string {
	return fmt.Sprintf("projects/%s/%s.pdf", projectID, fileID)
}

func isPDF(u FileUpload) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(u.ContentType, ";")[0]))
	if ct == pdfContentType {
		return true
	}
	return ct == "" && strings.EqualFold(path.Ext(u.FileName), ".pdf")
}
