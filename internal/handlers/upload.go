package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/services"
)

// formUpload opens the multipart file in field. The caller closes the
// returned file once the upload has been consumed.
func formUpload(c *gin.Context, field string, maxBytes int64) (services.Upload, multipart.File, bool) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	}

	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			apierrors.BadRequest(c, "File is too large")
		default:
			apierrors.BadRequest(c, "No file uploaded")
		}
		return services.Upload{}, nil, false
	}

	f, err := header.Open()
	if err != nil {
		_ = c.Error(err)
		apierrors.InternalError(c, "Failed to read upload")
		return services.Upload{}, nil, false
	}

	return services.Upload{
		Name:     header.Filename,
		MIMEType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Body:     f,
	}, f, true
}
