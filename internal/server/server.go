package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"firewatch/internal/models"
	"firewatch/internal/resize"
	"firewatch/internal/storage"
)

// Store is the persistence surface the handlers need. *storage.Storage
// satisfies it; tests substitute an in-memory fake.
type Store interface {
	InsertImage(ctx context.Context, payload []byte, width, height int, location *string) (int64, error)
	FetchPage(ctx context.Context, limit, offset int) ([]models.Image, error)
	FetchOne(ctx context.Context, id int64) (*models.Image, error)
	DeleteOne(ctx context.Context, id int64) (int64, error)
}

// Publisher queues freshly uploaded image ids for background mirroring.
type Publisher interface {
	Publish(ctx context.Context, id int64) error
}

// DriveUploader is the cloud mirror collaborator.
type DriveUploader interface {
	Exchange(ctx context.Context, code string) error
	Upload(ctx context.Context, name, mimeType string, payload []byte) (fileID, fileURL string, err error)
}

type Server struct {
	cfg       *models.Config
	router    *gin.Engine
	db        Store
	resizer   *resize.Service
	publisher Publisher
	uploader  DriveUploader
}

type imageView struct {
	ID       int64     `json:"id"`
	Image    string    `json:"image"`
	Datetime time.Time `json:"datetime"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Location *string   `json:"location"`
}

func NewServer(cfg *models.Config, db Store, resizer *resize.Service, publisher Publisher, uploader DriveUploader) *Server {
	r := gin.Default()

	s := &Server{cfg: cfg, router: r, db: db, resizer: resizer, publisher: publisher, uploader: uploader}

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, "Welcome to our server!")
	})
	r.POST("/upload", s.handleUpload)
	r.GET("/images", s.handleListImages)
	r.GET("/images/full/:id", s.handleFullImage)
	r.DELETE("/images/:id", s.handleDeleteImage)
	if uploader != nil {
		r.POST("/upload-drive", s.handleDriveUpload)
		r.GET("/auth", s.handleAuth)
	}

	return s
}

func (s *Server) Start() error {
	return s.router.Run(s.cfg.ServerAddr)
}

// Handler exposes the route tree so tests can drive requests in-process.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Stop() {
	// No shutdown needed for gin
}

// handleUpload validates in a fixed order (file, then dimensions, then
// location) and touches the store only after every check has passed.
func (s *Server) handleUpload(c *gin.Context) {
	const op = "server.handleUpload"

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No image file uploaded"})
		return
	}

	widthStr := c.PostForm("width")
	heightStr := c.PostForm("height")
	width, werr := strconv.Atoi(widthStr)
	height, herr := strconv.Atoi(heightStr)
	if widthStr == "" || heightStr == "" || werr != nil || herr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Image width and height are required"})
		return
	}

	location := c.PostForm("location")
	if s.cfg.RequireLocation && location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Location is required"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error uploading image", "error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error uploading image", "error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	var loc *string
	if location != "" {
		loc = &location
	}

	id, err := s.db.InsertImage(c.Request.Context(), payload, width, height, loc)
	if err != nil {
		slog.Error("insert failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error uploading image"})
		return
	}

	// Mirroring is best-effort; a queue failure never fails the upload.
	if s.publisher != nil {
		if err := s.publisher.Publish(c.Request.Context(), id); err != nil {
			slog.Error("failed to queue image for mirroring", "imageId", id, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "Image uploaded successfully",
		"imageId":  id,
		"location": location,
	})
}

func (s *Server) handleListImages(c *gin.Context) {
	const op = "server.handleListImages"

	page, pageOK := intQuery(c, "page", 1)
	pageSize, sizeOK := intQuery(c, "pageSize", s.cfg.DefaultPageSize)
	if !pageOK || !sizeOK || page < 1 || pageSize < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid pagination parameters"})
		return
	}

	targetWidth, ok := intQuery(c, "width", s.cfg.Resize.DefaultWidth)
	if !ok || targetWidth < 1 {
		targetWidth = s.cfg.Resize.DefaultWidth
	}
	targetHeight, ok := intQuery(c, "height", s.cfg.Resize.DefaultHeight)
	if !ok || targetHeight < 1 {
		targetHeight = s.cfg.Resize.DefaultHeight
	}

	offset := (page - 1) * pageSize

	records, err := s.db.FetchPage(c.Request.Context(), pageSize, offset)
	if err != nil {
		slog.Error("page fetch failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching images"})
		return
	}

	// Resizes are pure, so rows fan out concurrently; the slice keeps the
	// store's ordering. Reported width/height are the delivered targets, not
	// the stored declarations.
	views := make([]imageView, len(records))
	g, _ := errgroup.WithContext(c.Request.Context())
	for i, rec := range records {
		i, rec := i, rec
		g.Go(func() error {
			resized := s.resizer.Fit(rec.Data, targetWidth, targetHeight)
			views[i] = imageView{
				ID:       rec.ID,
				Image:    base64.StdEncoding.EncodeToString(resized),
				Datetime: rec.CapturedAt,
				Width:    targetWidth,
				Height:   targetHeight,
				Location: rec.Location,
			}
			return nil
		})
	}
	_ = g.Wait()

	c.JSON(http.StatusOK, views)
}

func (s *Server) handleFullImage(c *gin.Context) {
	const op = "server.handleFullImage"

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image id"})
		return
	}

	img, err := s.db.FetchOne(c.Request.Context(), id)
	if errors.Is(err, storage.ErrImageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found"})
		return
	}
	if err != nil {
		slog.Error("fetch failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error fetching image"})
		return
	}

	c.JSON(http.StatusOK, imageView{
		ID:       img.ID,
		Image:    base64.StdEncoding.EncodeToString(img.Data),
		Datetime: img.CapturedAt,
		Width:    img.Width,
		Height:   img.Height,
		Location: img.Location,
	})
}

func (s *Server) handleDeleteImage(c *gin.Context) {
	const op = "server.handleDeleteImage"

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image id"})
		return
	}

	affected, err := s.db.DeleteOne(c.Request.Context(), id)
	if err != nil {
		slog.Error("delete failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error deleting image"})
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}

func (s *Server) handleDriveUpload(c *gin.Context) {
	const op = "server.handleDriveUpload"

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload file to Google Drive", "error": fmt.Sprintf("%s: %v", op, err)})
		return
	}
	defer src.Close()

	payload, err := io.ReadAll(src)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload file to Google Drive", "error": fmt.Sprintf("%s: %v", op, err)})
		return
	}

	fileID, fileURL, err := s.uploader.Upload(c.Request.Context(), file.Filename, file.Header.Get("Content-Type"), payload)
	if err != nil {
		slog.Error("drive upload failed", "op", op, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to upload file to Google Drive"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded to Google Drive successfully",
		"fileId":  fileID,
		"fileUrl": fileURL,
	})
}

func (s *Server) handleAuth(c *gin.Context) {
	const op = "server.handleAuth"

	if err := s.uploader.Exchange(c.Request.Context(), c.Query("code")); err != nil {
		slog.Error("auth failed", "op", op, "error", err)
		c.String(http.StatusInternalServerError, "Failed to authenticate.")
		return
	}
	c.String(http.StatusOK, "Authentication successful!")
}

// intQuery parses a numeric query parameter, returning def when absent and
// ok=false when present but not an integer.
func intQuery(c *gin.Context, name string, def int) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
