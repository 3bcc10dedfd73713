package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/arcadeworks/arcade_backend/config"
	"bitbucket.org/arcadeworks/arcade_backend/models"
	"bitbucket.org/arcadeworks/arcade_backend/utils"
	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type uploadSignRequest struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	Entity   string `json:"entity"`
}

type uploadSignResponse struct {
	UploadURL string            `json:"uploadUrl"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectKey string            `json:"objectKey"`
	AccessURL string            `json:"accessUrl"`
	ExpiresAt string            `json:"expiresAt"`
}

const maxUploadSizeBytes int64 = 5 * 1024 * 1024

var imageMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// uploadMachinePhotoHandler takes a direct multipart upload, stores the
// photo and a 200px thumbnail in GCS and points the machine at it.
func uploadMachinePhotoHandler(c *gin.Context) {
	machineId, err := strconv.Atoi(c.PostForm("machine_id"))
	if err != nil || machineId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "machine_id is required"})
		return
	}

	ctx := c.Request.Context()
	machine, err := models.GetMachine(ctx, machineId)
	if err != nil {
		respondError(c, err)
		return
	}

	imageURL, _, err := storeUploadedImage(c, "machines")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &models.NewMachine{
		VenueId:      machine.VenueId,
		Name:         machine.Name,
		SerialNumber: machine.SerialNumber,
		Barcode:      machine.Barcode,
		MachineType:  machine.MachineType,
		Status:       machine.Status,
		PlayCost:     machine.PlayCost,
		InstallDate:  machine.InstallDate,
		ImageUrl:     imageURL,
		Notes:        machine.Notes,
	}
	updated, err := models.UpdateMachine(ctx, machineId, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// uploadVenueLogoHandler stores a venue logo the same way.
func uploadVenueLogoHandler(c *gin.Context) {
	venueId, err := strconv.Atoi(c.PostForm("venue_id"))
	if err != nil || venueId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "venue_id is required"})
		return
	}

	ctx := c.Request.Context()
	venue, err := models.GetVenue(ctx, venueId)
	if err != nil {
		respondError(c, err)
		return
	}

	logoURL, _, err := storeUploadedImage(c, "venues")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := &models.NewVenue{
		Name:                 venue.Name,
		Address:              venue.Address,
		City:                 venue.City,
		ContactName:          venue.ContactName,
		ContactPhone:         venue.ContactPhone,
		ContactEmail:         venue.ContactEmail,
		CommissionPercentage: venue.CommissionPercentage,
		LogoUrl:              logoURL,
	}
	updated, err := models.UpdateVenue(ctx, venueId, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// storeUploadedImage validates the multipart "file" part, uploads the
// original plus a thumbnail and returns their access URLs.
func storeUploadedImage(c *gin.Context, entity string) (string, string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		return "", "", errors.New("business id is required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return "", "", errors.New("file is required")
	}
	if fileHeader.Size > maxUploadSizeBytes {
		return "", "", errors.New("file size exceeds 5MB limit")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !imageMimeTypes[mimeType] {
		return "", "", errors.New("unsupported image type")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", "", err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadSizeBytes+1))
	if err != nil {
		return "", "", err
	}
	if int64(len(data)) > maxUploadSizeBytes {
		return "", "", errors.New("file size exceeds 5MB limit")
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", "", errors.New("invalid image")
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = extensionFromMimeType(mimeType)
	}
	objectKey := path.Join(businessId, entity, uuid.New().String()+ext)

	ctx := c.Request.Context()
	if err := utils.UploadBytesToGCS(ctx, objectKey, data, mimeType); err != nil {
		return "", "", err
	}

	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		return "", "", err
	}
	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		return "", "", err
	}

	config.GetLogger().WithFields(logrus.Fields{
		"tenant_id":  businessId,
		"mime_type":  mimeType,
		"size":       len(data),
		"object_key": objectKey,
	}).Info("[upload.image]")

	return utils.BuildObjectAccessURL(objectKey), utils.BuildObjectAccessURL(thumbnailKey), nil
}

// signUploadHandler hands out a signed PUT URL so large photos can go
// straight to the bucket without passing through this service.
func signUploadHandler(c *gin.Context) {
	logger := config.GetLogger()

	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req uploadSignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.FileName == "" || req.MimeType == "" || req.Size <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName, mimeType and size are required"})
		return
	}
	if req.Size > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 5MB limit"})
		return
	}
	if !imageMimeTypes[req.MimeType] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
		return
	}

	entity := sanitizeSegment(strings.ToLower(strings.TrimSpace(req.Entity)))
	if entity == "" {
		entity = "uploads"
	}

	ext := strings.ToLower(filepath.Ext(req.FileName))
	if ext == "" {
		ext = extensionFromMimeType(req.MimeType)
	}
	if ext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file extension is required"})
		return
	}

	objectKey := path.Join(businessId, entity, uuid.New().String()+ext)
	if utils.GetStorageProvider() != utils.StorageProviderGCS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage provider not supported"})
		return
	}

	signed, err := utils.SignUpload(c.Request.Context(), objectKey, req.MimeType, 15*time.Minute)
	if err != nil {
		logUploadError(logger, err, utils.GetStorageProvider(), c)
		message := "failed to sign upload"
		if !strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
			message = fmt.Sprintf("failed to sign upload: %v", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
		return
	}

	logger.WithFields(logrus.Fields{
		"tenant_id":  businessId,
		"mime_type":  req.MimeType,
		"size":       req.Size,
		"object_key": objectKey,
	}).Info("[upload.sign]")

	c.JSON(http.StatusOK, gin.H{
		"data": uploadSignResponse{
			UploadURL: signed.UploadURL,
			Method:    signed.Method,
			Headers:   signed.Headers,
			ObjectKey: signed.ObjectKey,
			AccessURL: signed.AccessURL,
			ExpiresAt: signed.ExpiresAt.UTC().Format(time.RFC3339),
		},
	})
}

type uploadCompleteRequest struct {
	ObjectKey string `json:"objectKey"`
}

// completeUploadHandler finishes a signed upload: it verifies the object
// landed in the tenant's prefix and builds the thumbnail the direct upload
// path would have produced.
func completeUploadHandler(c *gin.Context) {
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || businessId == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req uploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.ObjectKey) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "objectKey is required"})
		return
	}
	objectKey := strings.TrimSpace(req.ObjectKey)
	if !strings.HasPrefix(objectKey, businessId+"/") || strings.Contains(objectKey, "..") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid objectKey"})
		return
	}

	ctx := c.Request.Context()
	client, err := utils.GetGCSClient(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage client error"})
		return
	}
	defer client.Close()

	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "GCS_BUCKET is required"})
		return
	}
	reader, err := client.Bucket(bucket).Object(objectKey).NewReader(ctx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found; upload it first"})
		return
	}
	data, err := io.ReadAll(io.LimitReader(reader, maxUploadSizeBytes+1))
	reader.Close()
	if err != nil || int64(len(data)) > maxUploadSizeBytes {
		c.JSON(http.StatusBadRequest, gin.H{"error": "object too large"})
		return
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded object is not a valid image"})
		return
	}

	thumbnail := imaging.Resize(img, 200, 0, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumbnail, imaging.JPEG); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to encode thumbnail"})
		return
	}
	thumbnailKey := thumbnailObjectKey(objectKey)
	if err := utils.UploadBytesToGCS(ctx, thumbnailKey, buf.Bytes(), "image/jpeg"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store thumbnail"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"objectKey":    objectKey,
		"accessUrl":    utils.BuildObjectAccessURL(objectKey),
		"thumbnailUrl": utils.BuildObjectAccessURL(thumbnailKey),
	})
}

// uploadObjectHandler streams a stored object back to the client.
func uploadObjectHandler(c *gin.Context) {
	objectKey := strings.TrimSpace(c.Query("key"))
	if objectKey == "" || strings.Contains(objectKey, "..") || strings.HasPrefix(objectKey, "/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}

	// objects are stored under the tenant's prefix
	businessId, ok := utils.GetBusinessIdFromContext(c.Request.Context())
	if !ok || !strings.HasPrefix(objectKey, businessId+"/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid key"})
		return
	}

	if utils.GetStorageProvider() != utils.StorageProviderGCS {
		c.JSON(http.StatusBadRequest, gin.H{"error": "storage provider not supported"})
		return
	}

	client, err := utils.GetGCSClient(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storage client error"})
		return
	}
	defer client.Close()

	bucket := strings.TrimSpace(os.Getenv("GCS_BUCKET"))
	if bucket == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "GCS_BUCKET is required"})
		return
	}
	obj := client.Bucket(bucket).Object(objectKey)
	attrs, err := obj.Attrs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	reader, err := obj.NewReader(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	defer reader.Close()

	if attrs != nil && attrs.ContentType != "" {
		c.Writer.Header().Set("Content-Type", attrs.ContentType)
	}
	if attrs != nil && attrs.Size > 0 {
		c.Writer.Header().Set("Content-Length", fmt.Sprintf("%d", attrs.Size))
	}
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, reader)
}

func thumbnailObjectKey(objectKey string) string {
	dir := path.Dir(objectKey)
	filename := path.Base(objectKey)
	return path.Join(dir, "thumbnails", filename)
}

func sanitizeSegment(input string) string {
	var out strings.Builder
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			out.WriteRune(r)
		}
	}
	return out.String()
}

func extensionFromMimeType(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	default:
		return ""
	}
}

func logUploadError(logger *logrus.Logger, err error, provider string, c *gin.Context) {
	requestID, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	logUploadErrorWithID(logger, err, provider, requestID)
}

func logUploadErrorWithID(logger *logrus.Logger, err error, provider string, requestID string) {
	logger.WithFields(logrus.Fields{
		"error":      err.Error(),
		"provider":   provider,
		"request_id": requestID,
	}).Error("[upload.error]")
}
