package dto

import (
	"time"

	"github.com/yukikurage/project-management-api/internal/models"
)

// FileDTO represents uploaded file metadata in API responses
type FileDTO struct {
	ID           uint64      `json:"id"`
	OriginalName string      `json:"originalName"`
	StoredName   string      `json:"filename"`
	Path         string      `json:"path"`
	MIMEType     string      `json:"mimetype"`
	Size         int64       `json:"size"`
	Uploader     *UserRefDTO `json:"uploadedBy"`
	CreatedAt    time.Time   `json:"createdAt"`
}

// ToFileDTO converts a File model to FileDTO
func ToFileDTO(file models.File) FileDTO {
	return FileDTO{
		ID:           file.ID,
		OriginalName: file.OriginalName,
		StoredName:   file.StoredName,
		Path:         file.Path,
		MIMEType:     file.MIMEType,
		Size:         file.Size,
		Uploader:     toUserRef(&file.Uploader),
		CreatedAt:    file.CreatedAt,
	}
}

// ToFileDTOs converts a slice of files
func ToFileDTOs(files []models.File) []FileDTO {
	out := make([]FileDTO, len(files))
	for i, f := range files {
		out[i] = ToFileDTO(f)
	}
	return out
}
