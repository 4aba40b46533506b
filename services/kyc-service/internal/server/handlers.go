package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/tamper"
)

const maxUploadBytes = 20 << 20

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "kyc-workflow"})
}

// handleProcessComplete accepts a multipart email (subject, body,
// optional attachments) and runs the full workflow. Validation errors
// are 400s; a validated request always returns 200 with a complete
// result, however degraded.
func (d Deps) handleProcessComplete(c *gin.Context) {
	subject := strings.TrimSpace(c.PostForm("subject"))
	body := strings.TrimSpace(c.PostForm("body"))
	if subject == "" || body == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subject and body are required"})
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	var attachments []models.FileAttachment
	for _, header := range form.File["attachments"] {
		att, err := readUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		attachments = append(attachments, att)
	}

	email := models.EmailInput{
		Subject:     subject,
		Body:        body,
		Attachments: attachments,
	}
	result := d.Workflow.Run(c.Request.Context(), email, requesterFromHeaders(c))
	c.JSON(http.StatusOK, result)
}

// handleAnalyzeDocument runs extraction and document analysis on a
// single uploaded file, outside of any workflow.
func (d Deps) handleAnalyzeDocument(c *gin.Context) {
	att, ok := singleUpload(c)
	if !ok {
		return
	}

	text := d.Extractor.Extract(c.Request.Context(), att)
	result := d.Analyzer.Analyze(c.Request.Context(), text, att.Filename, requesterFromHeaders(c))
	c.JSON(http.StatusOK, result)
}

// handleTamperDetect runs tamper detection on a single uploaded file.
func (d Deps) handleTamperDetect(c *gin.Context) {
	att, ok := singleUpload(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, tamper.Detect(att.Data, att.ContentType))
}

// handleERPRecords lists recent workflow runs from the audit store.
func (d Deps) handleERPRecords(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := d.Runs.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (d Deps) handleInferenceUsage(c *gin.Context) {
	if d.Usage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "inference provider not configured"})
		return
	}
	c.JSON(http.StatusOK, d.Usage.Usage())
}

// singleUpload reads the "file" part and validates it, writing the 400
// itself when the upload is unusable.
func singleUpload(c *gin.Context) (models.FileAttachment, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return models.FileAttachment{}, false
	}

	att, err := readUpload(header)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.FileAttachment{}, false
	}
	return att, true
}

// readUpload buffers one multipart file and validates name, size and
// MIME type.
func readUpload(header *multipart.FileHeader) (models.FileAttachment, error) {
	if header.Filename == "" {
		return models.FileAttachment{}, fmt.Errorf("attachment is missing a filename")
	}
	if header.Size > maxUploadBytes {
		return models.FileAttachment{}, fmt.Errorf("attachment %s exceeds the size limit", header.Filename)
	}

	contentType := attachmentContentType(header.Header.Get("Content-Type"), header.Filename)
	if _, ok := extract.Kind(contentType); !ok {
		return models.FileAttachment{}, fmt.Errorf("unsupported file type %q for %s", contentType, header.Filename)
	}

	file, err := header.Open()
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("open attachment %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return models.FileAttachment{}, fmt.Errorf("read attachment %s: %w", header.Filename, err)
	}
	if len(data) == 0 {
		return models.FileAttachment{}, fmt.Errorf("attachment %s is empty", header.Filename)
	}

	return models.FileAttachment{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
