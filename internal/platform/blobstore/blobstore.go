// Package blobstore stores profile images for directory entries. It defines
// the Store interface, an in-memory implementation used in development and
// tests, and Echo handlers for upload and download.
package blobstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrBlobNotFound       = errors.New("blob not found")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrInvalidContentType = errors.New("content type is not allowed")
	ErrMissingFileName    = errors.New("file name is required")
)

// MaxFileSize is the maximum allowed image size in bytes (5 MB).
const MaxFileSize = 5 * 1024 * 1024

// AllowedContentTypes lists accepted profile image MIME types.
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Metadata describes a stored image.
type Metadata struct {
	ID          string    `json:"id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	OwnerID     string    `json:"owner_id"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store is the contract for profile image storage backends.
type Store interface {
	Upload(ctx context.Context, meta Metadata, content io.Reader) (*Metadata, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *Metadata, error)
	Delete(ctx context.Context, id string) error
	GetMetadata(ctx context.Context, id string) (*Metadata, error)
}

type storedBlob struct {
	metadata Metadata
	content  []byte
}

// InMemoryStore is a thread-safe, in-memory Store for development and tests.
type InMemoryStore struct {
	mu    sync.RWMutex
	blobs map[string]*storedBlob
}

// NewInMemoryStore returns a ready-to-use InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		blobs: make(map[string]*storedBlob),
	}
}

// Upload validates inputs, reads the content, computes a SHA-256 hash, and
// stores the image in memory.
func (s *InMemoryStore) Upload(_ context.Context, meta Metadata, content io.Reader) (*Metadata, error) {
	if meta.FileName == "" {
		return nil, ErrMissingFileName
	}
	if !AllowedContentTypes[meta.ContentType] {
		return nil, ErrInvalidContentType
	}

	data, err := io.ReadAll(io.LimitReader(content, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading content: %w", err)
	}
	if int64(len(data)) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	h := sha256.Sum256(data)

	meta.ID = uuid.New().String()
	meta.Size = int64(len(data))
	meta.Hash = fmt.Sprintf("%x", h)
	meta.CreatedAt = time.Now().UTC()

	s.mu.Lock()
	s.blobs[meta.ID] = &storedBlob{
		metadata: meta,
		content:  data,
	}
	s.mu.Unlock()

	out := meta // copy
	return &out, nil
}

// Download returns an io.ReadCloser over the image content and its metadata.
func (s *InMemoryStore) Download(_ context.Context, id string) (io.ReadCloser, *Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, nil, ErrBlobNotFound
	}

	meta := blob.metadata // copy
	return io.NopCloser(bytes.NewReader(blob.content)), &meta, nil
}

// Delete removes an image by ID.
func (s *InMemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[id]; !ok {
		return ErrBlobNotFound
	}
	delete(s.blobs, id)
	return nil
}

// GetMetadata returns image metadata without content.
func (s *InMemoryStore) GetMetadata(_ context.Context, id string) (*Metadata, error) {
	s.mu.RLock()
	blob, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrBlobNotFound
	}

	meta := blob.metadata // copy
	return &meta, nil
}

// Handler provides Echo HTTP handlers for profile image operations.
type Handler struct {
	store Store
}

// NewHandler creates a new Handler.
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes mounts image routes on the supplied Echo group.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/images/upload", h.handleUpload)
	g.GET("/images/:id/metadata", h.handleGetMetadata)
	g.GET("/images/:id", h.handleDownload)
	g.DELETE("/images/:id", h.handleDelete)
}

func (h *Handler) handleUpload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "file is required"})
	}

	src, err := file.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "cannot open uploaded file"})
	}
	defer src.Close()

	ownerID, _ := c.Get("identity_id").(string)

	meta := Metadata{
		FileName:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		OwnerID:     ownerID,
	}

	stored, err := h.store.Upload(c.Request().Context(), meta, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrFileTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrInvalidContentType), errors.Is(err, ErrMissingFileName):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "upload failed"})
		}
	}

	return c.JSON(http.StatusCreated, stored)
}

func (h *Handler) handleDownload(c echo.Context) error {
	id := c.Param("id")

	content, meta, err := h.store.Download(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "download failed"})
	}
	defer content.Close()

	c.Response().Header().Set("Content-Disposition",
		fmt.Sprintf("inline; filename=%q", meta.FileName))
	return c.Stream(http.StatusOK, meta.ContentType, content)
}

func (h *Handler) handleGetMetadata(c echo.Context) error {
	meta, err := h.store.GetMetadata(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "metadata lookup failed"})
	}
	return c.JSON(http.StatusOK, meta)
}

func (h *Handler) handleDelete(c echo.Context) error {
	if err := h.store.Delete(c.Request().Context(), c.Param("id")); err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "image not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
