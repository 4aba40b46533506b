package extract

import (
	"bytes"
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jupiterbrains/kyc-platform/internal/models"
)

// supportedTypes maps accepted MIME types to coarse file kinds. Anything
// outside this set is rejected before extraction is attempted.
var supportedTypes = map[string]string{
	"application/pdf":    "PDF",
	"application/msword": "DOC",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": "DOCX",
	"image/jpeg": "Image",
	"image/png":  "Image",
	"image/jpg":  "Image",
	"text/plain": "Text",
}

// MaxTextLen bounds extracted text so downstream inference calls stay
// tractable. Truncation is silent and lossy.
const MaxTextLen = 3000

// Kind returns the coarse file kind for a MIME type and whether the type
// is supported at all.
func Kind(contentType string) (string, bool) {
	base := contentType
	if i := strings.Index(base, ";"); i >= 0 {
		base = base[:i]
	}
	kind, ok := supportedTypes[strings.TrimSpace(strings.ToLower(base))]
	return kind, ok
}

// Extractor converts raw document bytes into bounded plain text.
type Extractor struct {
	ocrBinary string
}

// New builds an extractor. ocrBinary defaults to "tesseract".
func New(ocrBinary string) *Extractor {
	if ocrBinary == "" {
		ocrBinary = "tesseract"
	}
	return &Extractor{ocrBinary: ocrBinary}
}

// Extract returns a best-effort plain-text rendition of the attachment.
// It never fails for malformed content: unreadable input yields a short
// diagnostic string and downstream stages proceed with degraded
// confidence.
func (e *Extractor) Extract(ctx context.Context, att models.FileAttachment) string {
	kind, _ := Kind(att.ContentType)

	var text string
	switch kind {
	case "PDF":
		text = extractPDFText(att.Data)
	case "Image":
		text = e.extractImageText(ctx, att.Data, att.Filename)
	default:
		text = decodeBytes(att.Data)
	}

	return truncate(text, MaxTextLen)
}

// extractPDFText concatenates per-page text. A PDF with no extractable
// text (a scanned image, typically) falls back to a raw-byte decode.
func extractPDFText(data []byte) (text string) {
	defer func() {
		// The reader panics on some malformed files; degrade, don't crash.
		if r := recover(); r != nil {
			log.Printf("[DOCUMENT] pdf reader panic: %v", r)
			text = decodeBytes(data)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		log.Printf("[DOCUMENT] pdf open failed: %v", err)
		return decodeBytes(data)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(pageText)
	}

	if strings.TrimSpace(b.String()) == "" {
		return decodeBytes(data)
	}
	return b.String()
}

// extractImageText shells out to the OCR binary. OCR failure returns a
// diagnostic placeholder rather than an error.
func (e *Extractor) extractImageText(ctx context.Context, data []byte, filename string) string {
	tmp, err := os.CreateTemp("", "kyc-ocr-*"+filepath.Ext(filename))
	if err != nil {
		log.Printf("[DOCUMENT] ocr temp file: %v", err)
		return "Unable to extract text from image"
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		log.Printf("[DOCUMENT] ocr temp write: %v", err)
		return "Unable to extract text from image"
	}
	tmp.Close()

	out, err := exec.CommandContext(ctx, e.ocrBinary, tmp.Name(), "stdout").Output()
	if err != nil {
		log.Printf("[DOCUMENT] ocr failed: %v", err)
		return "Unable to extract text from image"
	}
	return string(out)
}

// decodeBytes is the permissive text path: valid UTF-8 passes through,
// invalid sequences are dropped.
func decodeBytes(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
