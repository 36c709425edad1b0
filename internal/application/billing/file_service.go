package billing

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/tiller/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// UploadedFile is one incoming document with its content
type UploadedFile struct {
	FileName    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// FileService manages the PDF documents attached to projects
type FileService struct {
	projectRepo billing.ProjectRepository
	fileRepo    billing.ProjectFileRepository
	storage     ObjectStorage
	logger      *zap.Logger
}

// NewFileService creates a new FileService
func NewFileService(
	projectRepo billing.ProjectRepository,
	fileRepo billing.ProjectFileRepository,
	storage ObjectStorage,
	logger *zap.Logger,
) *FileService {
	return &FileService{
		projectRepo: projectRepo,
		fileRepo:    fileRepo,
		storage:     storage,
		logger:      logger,
	}
}

// Upload validates and stores a batch of files. The batch is checked as a
// whole before any content is written; content already written is removed
// again when a later file fails.
func (s *FileService) Upload(ctx context.Context, projectID uuid.UUID, files []UploadedFile, titles []string, uploadedBy *uuid.UUID) ([]ProjectFileResponse, error) {
	if _, err := s.projectRepo.FindByID(ctx, projectID); err != nil {
		return nil, err
	}

	uploads := make([]billing.FileUpload, len(files))
	for i, f := range files {
		uploads[i] = billing.FileUpload{FileName: f.FileName, ContentType: f.ContentType, Size: f.Size}
	}
	planned, err := billing.PlanUpload(projectID, uploads, titles, uploadedBy)
	if err != nil {
		return nil, err
	}

	stored := make([]billing.ProjectFile, 0, len(planned))
	for i := range planned {
		if err := s.store(ctx, &planned[i], files[i]); err != nil {
			s.rollback(ctx, stored)
			return nil, err
		}
		stored = append(stored, planned[i])
	}

	responses := make([]ProjectFileResponse, len(stored))
	for i := range stored {
		responses[i] = ToProjectFileResponse(&stored[i])
	}
	s.logger.Info("Project files uploaded",
		zap.String("project_id", projectID.String()),
		zap.Int("count", len(stored)))
	return responses, nil
}

func (s *FileService) store(ctx context.Context, file *billing.ProjectFile, upload UploadedFile) error {
	body, err := upload.Open()
	if err != nil {
		return err
	}
	defer body.Close()

	if err := s.storage.Put(ctx, file.StorageKey, file.ContentType, body, file.Size); err != nil {
		return err
	}
	if err := s.fileRepo.Save(ctx, file); err != nil {
		_ = s.storage.DeleteObject(ctx, file.StorageKey)
		return err
	}
	return nil
}

func (s *FileService) rollback(ctx context.Context, files []billing.ProjectFile) {
	for _, f := range files {
		if err := s.fileRepo.Delete(ctx, f.ProjectID, f.ID); err != nil {
			s.logger.Warn("Failed to remove file record", zap.String("file_id", f.ID.String()), zap.Error(err))
		}
		if err := s.storage.DeleteObject(ctx, f.StorageKey); err != nil {
			s.logger.Warn("Failed to remove file content", zap.String("storage_key", f.StorageKey), zap.Error(err))
		}
	}
}

// List returns the files of a project, newest upload first
func (s *FileService) List(ctx context.Context, projectID uuid.UUID) ([]ProjectFileResponse, error) {
	files, err := s.fileRepo.FindByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	responses := make([]ProjectFileResponse, len(files))
	for i := range files {
		responses[i] = ToProjectFileResponse(&files[i])
	}
	return responses, nil
}

// Download opens the content of a file. The caller closes the reader.
func (s *FileService) Download(ctx context.Context, projectID, fileID uuid.UUID) (*ProjectFileResponse, io.ReadCloser, error) {
	file, err := s.fileRepo.FindByID(ctx, projectID, fileID)
	if err != nil {
		return nil, nil, err
	}
	body, err := s.storage.Get(ctx, file.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	resp := ToProjectFileResponse(file)
	return &resp, body, nil
}

// Rename changes the title of a file
func (s *FileService) Rename(ctx context.Context, projectID, fileID uuid.UUID, req RenameFileRequest) (*ProjectFileResponse, error) {
	file, err := s.fileRepo.FindByID(ctx, projectID, fileID)
	if err != nil {
		return nil, err
	}
	if err := file.Rename(req.Title); err != nil {
		return nil, err
	}
	if err := s.fileRepo.Save(ctx, file); err != nil {
		return nil, err
	}
	resp := ToProjectFileResponse(file)
	return &resp, nil
}

// Delete removes a file record and its content
func (s *FileService) Delete(ctx context.Context, projectID, fileID uuid.UUID) error {
	file, err := s.fileRepo.FindByID(ctx, projectID, fileID)
	if err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ctx, projectID, fileID); err != nil {
		return err
	}
	if err := s.storage.DeleteObject(ctx, file.StorageKey); err != nil {
		s.logger.Warn("Failed to delete file content",
			zap.String("storage_key", file.StorageKey),
			zap.Error(err))
	}
	return nil
}
