package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/maskapp/mask/internal/storage"
	"github.com/maskapp/mask/internal/util"
)

// Upload stores an image and returns its public URL
// POST /api/uploads (multipart: file, kind=avatar|cover|post)
func (h *Handlers) Upload(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	// leave room for the multipart envelope around the file itself
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes()+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			util.RespondError(c, h.uploads.TooLarge(), "upload")
			return
		}
		util.RespondValidationError(c, "file", "an image file is required")
		return
	}

	kind := c.DefaultPostForm("kind", storage.KindPost)
	result, err := h.uploads.StoreMultipart(c.Request.Context(), userID, kind, fh)
	if err != nil {
		util.RespondError(c, err, "upload")
		return
	}
	c.JSON(http.StatusCreated, result)
}
