package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yukikurage/project-management-api/internal/constants"
	"github.com/yukikurage/project-management-api/internal/dto"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// FileHandler serves the shared file endpoints.
type FileHandler struct {
	fileService    *services.FileService
	maxUploadBytes int64
}

// NewFileHandler creates a new FileHandler.
func NewFileHandler(fileService *services.FileService, maxUploadBytes int64) *FileHandler {
	return &FileHandler{
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
	}
}

// UploadFile stores the multipart "file" field.
func (h *FileHandler) UploadFile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	upload, f, ok := formUpload(c, constants.FileFormField, h.maxUploadBytes)
	if !ok {
		return
	}
	defer f.Close()

	file, err := h.fileService.UploadFile(c.Request.Context(), actor, upload)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFileDTO(*file))
}

// ListFiles returns uploaded files, newest first. Every file is returned
// unless the client asks for a page.
func (h *FileHandler) ListFiles(c *gin.Context) {
	if _, ok := currentActor(c); !ok {
		return
	}

	files, err := h.fileService.ListFiles(c.Request.Context(), utils.RequestedPagination(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToFileDTOs(files))
}
