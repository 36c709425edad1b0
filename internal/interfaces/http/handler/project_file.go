package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/tiller/backend/internal/application/billing"
	"github.com/tiller/backend/internal/interfaces/http/dto"
)

// FileService is the part of billingapp.FileService the handler uses
type FileService interface {
	Upload(ctx context.Context, projectID uuid.UUID, files []billingapp.UploadedFile, titles []string, uploadedBy *uuid.UUID) ([]billingapp.ProjectFileResponse, error)
	List(ctx context.Context, projectID uuid.UUID) ([]billingapp.ProjectFileResponse, error)
	Download(ctx context.Context, projectID, fileID uuid.UUID) (*billingapp.ProjectFileResponse, io.ReadCloser, error)
	Rename(ctx context.Context, projectID, fileID uuid.UUID, req billingapp.RenameFileRequest) (*billingapp.ProjectFileResponse, error)
	Delete(ctx context.Context, projectID, fileID uuid.UUID) error
}

// ProjectFileHandler handles project document endpoints
type ProjectFileHandler struct {
	BaseHandler
	fileService FileService
}

// NewProjectFileHandler creates a new ProjectFileHandler
func NewProjectFileHandler(fileService FileService) *ProjectFileHandler {
	return &ProjectFileHandler{fileService: fileService}
}

// Upload godoc
// @Summary      Upload project documents
// @Description  PDF only, 10MB per file and 50MB per request. titles[] must match files[] in count when given.
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        files formData file true "PDF documents"
// @Param        titles formData []string false "Titles"
// @Success      201 {object} APIResponse[[]billingapp.ProjectFileResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      413 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/files [post]
func (h *ProjectFileHandler) Upload(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	actor, ok := h.actor(c)
	if !ok {
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.Error(c, dto.ErrCodeTooLarge, "Upload exceeds the 50MB request limit")
			return
		}
		h.BadRequest(c, "Expected a multipart form with files[]")
		return
	}
	headers := form.File["files[]"]
	if len(headers) == 0 {
		headers = form.File["files"]
	}
	titles := form.Value["titles[]"]
	if len(titles) == 0 {
		titles = form.Value["titles"]
	}

	uploads := make([]billingapp.UploadedFile, len(headers))
	for i, fh := range headers {
		uploads[i] = uploadedFile(fh)
	}
	files, err := h.fileService.Upload(c.Request.Context(), projectID, uploads, titles, &actor.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, files)
}

func uploadedFile(fh *multipart.FileHeader) billingapp.UploadedFile {
	return billingapp.UploadedFile{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// List godoc
// @Summary      List project documents
// @Description  Metadata only, newest first
// @Tags         files
// @Produce      json
// @Param        id path string true "Project ID"
// @Success      200 {object} APIResponse[[]billingapp.ProjectFileResponse]
// @Security     BearerAuth
// @Router       /projects/{id}/files [get]
func (h *ProjectFileHandler) List(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	files, err := h.fileService.List(c.Request.Context(), projectID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, files)
}

// Download godoc
// @Summary      Download a project document
// @Tags         files
// @Produce      application/pdf
// @Param        id path string true "Project ID"
// @Param        fileId path string true "File ID"
// @Success      200 {file} binary
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/files/{fileId}/download [get]
func (h *ProjectFileHandler) Download(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := h.pathID(c, "fileId")
	if !ok {
		return
	}
	file, body, err := h.fileService.Download(c.Request.Context(), projectID, fileID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer body.Close()

	contentType := file.ContentType
	if contentType == "" {
		contentType = contentTypePDF
	}
	c.DataFromReader(http.StatusOK, file.Size, contentType, body, map[string]string{
		"Content-Disposition": "attachment; filename=" + strconv.Quote(file.FileName),
	})
}

// Rename godoc
// @Summary      Rename a project document
// @Tags         files
// @Accept       json
// @Produce      json
// @Param        id path string true "Project ID"
// @Param        fileId path string true "File ID"
// @Param        request body billingapp.RenameFileRequest true "Title"
// @Success      200 {object} APIResponse[billingapp.ProjectFileResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/files/{fileId} [patch]
func (h *ProjectFileHandler) Rename(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := h.pathID(c, "fileId")
	if !ok {
		return
	}
	var req billingapp.RenameFileRequest
	if !h.bindJSON(c, &req) {
		return
	}
	file, err := h.fileService.Rename(c.Request.Context(), projectID, fileID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, file)
}

// Delete godoc
// @Summary      Delete a project document
// @Tags         files
// @Param        id path string true "Project ID"
// @Param        fileId path string true "File ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /projects/{id}/files/{fileId} [delete]
func (h *ProjectFileHandler) Delete(c *gin.Context) {
	projectID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	fileID, ok := h.pathID(c, "fileId")
	if !ok {
		return
	}
	if err := h.fileService.Delete(c.Request.Context(), projectID, fileID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
