package services

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/policy"
	"github.com/yukikurage/project-management-api/internal/repository"
	"github.com/yukikurage/project-management-api/internal/storage"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// Upload is a file received from a client.
type Upload struct {
	Name     string
	MIMEType string
	Size     int64
	Body     io.Reader
}

// FileService stores uploaded files and their metadata
type FileService struct {
	fileRepo repository.FileRepository
	blobs    storage.BlobStore
}

// NewFileService creates a new FileService
func NewFileService(fileRepo repository.FileRepository, blobs storage.BlobStore) *FileService {
	return &FileService{
		fileRepo: fileRepo,
		blobs:    blobs,
	}
}

// UploadFile stores the bytes under a generated name and records the
// metadata with the actor as uploader.
func (s *FileService) UploadFile(ctx context.Context, actor policy.Actor, upload Upload) (*models.File, error) {
	if upload.Body == nil || upload.Name == "" {
		return nil, ErrFileRequired
	}

	key := storage.NewKey("", upload.Name)
	obj, err := s.blobs.Save(ctx, key, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	file := &models.File{
		OriginalName: path.Base(upload.Name),
		StoredName:   key,
		Path:         blobURL(key),
		MIMEType:     upload.MIMEType,
		Size:         obj.Size,
		UploaderID:   actor.ID,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		_ = s.blobs.Delete(context.WithoutCancel(ctx), key)
		return nil, fmt.Errorf("failed to save file metadata: %w", err)
	}

	return file, nil
}

// ListFiles lists file metadata, newest first. A nil params lists every file.
func (s *FileService) ListFiles(ctx context.Context, params *utils.PaginationParams) ([]models.File, error) {
	files, err := s.fileRepo.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}
