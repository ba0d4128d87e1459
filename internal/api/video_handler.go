package api

import (
	"errors"
	"net/http"
	"time"

	"carevid/video-library/internal/domain"
	"carevid/video-library/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// maxMultipartOverhead is the slack allowed for multipart boundaries and
// form fields on top of the file size limit, so a file of exactly the
// configured maximum still fits in the request body.
const maxMultipartOverhead = int64(1) << 20

// VideoHandler holds the video service dependency.
type VideoHandler struct {
	videoService  service.VideoService
	maxUploadSize int64
}

// NewVideoHandler creates a new VideoHandler.
func NewVideoHandler(videoService service.VideoService, maxUploadSize int64) *VideoHandler {
	return &VideoHandler{
		videoService:  videoService,
		maxUploadSize: maxUploadSize,
	}
}

// --- DTOs ---

// UpdateVideoRequest defines the JSON body for a partial metadata update.
type UpdateVideoRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// VideoResponse is the DTO for returning video details.
type VideoResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	FileKey     string    `json:"fileKey"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MapVideoToResponse converts a domain.Video to a VideoResponse DTO.
func MapVideoToResponse(v *domain.Video) VideoResponse {
	if v == nil {
		return VideoResponse{}
	}
	return VideoResponse{
		ID:          v.ID.Hex(),
		Title:       v.Title,
		Description: v.Description,
		FileKey:     v.StorageKey,
		FileName:    v.FileName,
		ContentType: v.ContentType,
		Size:        v.Size,
		CreatedAt:   v.CreatedAt,
		UpdatedAt:   v.UpdatedAt,
	}
}

// MapVideosToResponse converts a slice of domain.Video to response DTOs.
func MapVideosToResponse(videos []domain.Video) []VideoResponse {
	responses := make([]VideoResponse, len(videos))
	for i, v := range videos {
		responses[i] = MapVideoToResponse(&v)
	}
	return responses
}

// --- Handler Methods ---

// Upload handles POST /videos/upload. Expects a multipart form with a
// "file" part plus "title" and "description" fields.
func (h *VideoHandler) Upload(c *gin.Context) {
	// Cap the body before touching it. A payload past the cap, or a client
	// that disconnects mid-body, fails here and never reaches storage. The
	// cap covers the whole multipart body, so it carries slack beyond the
	// file limit; the exact file-size constraint is enforced downstream.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+maxMultipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respond(c, http.StatusBadRequest, "file is required and must not exceed the upload size limit", nil)
		return
	}
	defer file.Close()

	input := service.UploadInput{
		File:        file,
		FileName:    header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
	}

	video, err := h.videoService.Upload(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	respond(c, http.StatusCreated, "video uploaded", MapVideoToResponse(video))
}

// List handles GET /videos.
func (h *VideoHandler) List(c *gin.Context) {
	videos, err := h.videoService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "videos retrieved", MapVideosToResponse(videos))
}

// Get handles GET /videos/:id.
func (h *VideoHandler) Get(c *gin.Context) {
	id, ok := videoIDParam(c)
	if !ok {
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "video not found")
			return
		}
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "video retrieved", MapVideoToResponse(video))
}

// SignedURL handles GET /videos/:id/signed-url.
func (h *VideoHandler) SignedURL(c *gin.Context) {
	id, ok := videoIDParam(c)
	if !ok {
		return
	}

	url, err := h.videoService.SignedURL(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "video not found")
			return
		}
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "signed URL issued", url)
}

// Update handles PATCH /videos/:id.
func (h *VideoHandler) Update(c *gin.Context) {
	id, ok := videoIDParam(c)
	if !ok {
		return
	}

	var req UpdateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.Title != nil && *req.Title == "" {
		respond(c, http.StatusBadRequest, "title must not be empty", nil)
		return
	}

	video, err := h.videoService.Update(c.Request.Context(), id, service.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "video not found")
			return
		}
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "video updated", MapVideoToResponse(video))
}

// Delete handles DELETE /videos/:id.
func (h *VideoHandler) Delete(c *gin.Context) {
	id, ok := videoIDParam(c)
	if !ok {
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			respondNotFound(c, "video not found")
			return
		}
		respondError(c, err)
		return
	}

	respond(c, http.StatusOK, "video deleted", nil)
}

// videoIDParam parses the :id path parameter, responding with a 400 on a
// malformed identifier.
func videoIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respond(c, http.StatusBadRequest, "invalid video id", nil)
		return primitive.NilObjectID, false
	}
	return id, true
}
