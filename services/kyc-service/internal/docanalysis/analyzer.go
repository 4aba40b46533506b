package docanalysis

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/inference"
)

const (
	defaultModel      = "llama-3.1-70b-versatile"
	defaultMaxTokens  = 800
	previewLen        = 400
	minUsableTextLen  = 10
	heuristicBaseConf = 0.60
)

// Vocabularies for the degraded heuristic path. The higher-scoring side
// wins; zero matches on both gives Other.
var (
	identityWords = []string{"license", "licence", "passport", "id", "identity", "card"}
	invoiceWords  = []string{"invoice", "statement", "bill", "receipt", "facture", "fattura", "factura"}
)

// Analyzer pulls structured KYC fields out of extracted document text.
// The inference provider is the primary path; filename/content keyword
// heuristics are the guaranteed fallback.
type Analyzer struct {
	provider    inference.Provider
	decoder     inference.Decoder
	model       string
	temperature float64
	maxTokens   int
}

// New builds an analyzer. A nil provider means the heuristic path only.
func New(provider inference.Provider, model string) *Analyzer {
	if model == "" {
		model = defaultModel
	}
	return &Analyzer{
		provider:    provider,
		model:       model,
		temperature: 0.1,
		maxTokens:   defaultMaxTokens,
	}
}

type aiDocument struct {
	DocumentType      string         `json:"document_type"`
	ExtractedEntities []string       `json:"extracted_entities"`
	StructuredData    map[string]any `json:"structured_data"`
	Confidence        float64        `json:"confidence"`
	Summary           string         `json:"summary"`
}

func (d aiDocument) validate() error {
	switch d.DocumentType {
	case models.DocTypeID, models.DocTypeFinancial, models.DocTypeProofOfAddress,
		models.DocTypeBusiness, models.DocTypeOther:
	default:
		return fmt.Errorf("document_type %q is not valid", d.DocumentType)
	}
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range [0, 1]", d.Confidence)
	}
	return nil
}

// Analyze never fails: any inference problem degrades to the heuristic
// result, and an internal panic converts to the Processing_Error shape.
func (a *Analyzer) Analyze(ctx context.Context, text, filename string, requester models.Requester) (result models.DocumentAnalysisResult) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[DOCUMENT] analysis panic: %v", r)
			result = models.DocumentAnalysisResult{
				DocumentType: models.DocTypeProcessingError,
				PageCount:    1,
				Entities:     []string{"Document processing failed"},
				Confidence:   0.0,
				ReceivedAt:   time.Now().Format("2006-01-02 15:04:05"),
				Preview:      "Document processing failed - manual review required",
				ExtractedData: map[string]any{
					"error":                  "processing failed",
					"manual_review_required": true,
				},
				ProcessingSeconds: round2(time.Since(start).Seconds()),
			}
		}
	}()

	if a.provider == nil || len(strings.TrimSpace(text)) < minUsableTextLen {
		return a.heuristic(text, filename, start)
	}

	lang := detectLanguage(text)
	prompt := languagePrompts[lang]

	resp, err := a.provider.Complete(ctx, inference.Request{
		System:      systemPrompt + "\n\n" + prompt.instructions,
		User:        responseSchema + "\n\n" + prompt.jsonLeadIn + text + "\n\nFILENAME: " + filename,
		Model:       a.model,
		Temperature: a.temperature,
		MaxTokens:   a.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("[DOCUMENT] inference call failed, using heuristics: %v", err)
		return a.heuristic(text, filename, start)
	}

	var ai aiDocument
	if err := a.decoder.Decode(resp.Content, &ai, func() error { return ai.validate() }); err != nil {
		log.Printf("[DOCUMENT] unusable inference response, using heuristics: %v", err)
		return a.heuristic(text, filename, start)
	}

	return models.DocumentAnalysisResult{
		DocumentType:      ai.DocumentType,
		PageCount:         1,
		Entities:          buildEntities(ai, filename, requester),
		DetectedCurrency:  detectCurrency(ai.StructuredData),
		Confidence:        ai.Confidence,
		ReceivedAt:        time.Now().Format("2006-01-02 15:04:05"),
		Preview:           truncate(text, previewLen),
		ExtractedData:     ai.StructuredData,
		ProcessingSeconds: round2(time.Since(start).Seconds()),
	}
}

// heuristic is the coarse degraded path: document type from keyword
// overlap between the identity and invoice vocabularies across filename
// and content, extracted data flagged for manual review.
func (a *Analyzer) heuristic(text, filename string, start time.Time) models.DocumentAnalysisResult {
	haystack := strings.ToLower(filename + " " + text)

	idScore := countHits(haystack, identityWords)
	invScore := countHits(haystack, invoiceWords)

	docType := models.DocTypeOther
	entities := []string{"Unknown document type", "Manual review required"}
	switch {
	case idScore > invScore:
		docType = models.DocTypeID
		entities = []string{"Document type detected from filename", "Manual review recommended"}
	case invScore > idScore && invScore > 0:
		docType = models.DocTypeFinancial
		entities = []string{"Financial document detected", "Manual extraction required"}
	}

	return models.DocumentAnalysisResult{
		DocumentType: docType,
		PageCount:    1,
		Entities:     entities,
		Confidence:   heuristicBaseConf,
		ReceivedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Preview:      truncate(text, previewLen),
		ExtractedData: map[string]any{
			"error":                  "AI analysis unavailable",
			"manual_review_required": true,
		},
		ProcessingSeconds: round2(time.Since(start).Seconds()),
	}
}

// buildEntities assembles the human-readable entity list: file-type
// marker first, structured fields as "Field: Value", then any free-text
// entities from the model, then the requester marker.
func buildEntities(ai aiDocument, filename string, requester models.Requester) []string {
	kind := "Unknown"
	if k, ok := extract.Kind(kindFromFilename(filename)); ok {
		kind = k
	}

	entities := []string{"File Type: " + kind}
	for _, key := range sortedKeys(ai.StructuredData) {
		value := ai.StructuredData[key]
		if value == nil {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", value))
		if s == "" {
			continue
		}
		entities = append(entities, titleCase(key)+": "+s)
	}
	entities = append(entities, ai.ExtractedEntities...)
	if requester != nil && requester.Email() != "" {
		entities = append(entities, "Processed by: "+requester.Email())
	}
	return entities
}

// detectCurrency scans structured values for currency markers; the first
// match wins.
func detectCurrency(data map[string]any) string {
	for _, key := range sortedKeys(data) {
		v := fmt.Sprintf("%v", data[key])
		switch {
		case strings.Contains(v, "USD") || strings.Contains(v, "$"):
			return "USD"
		case strings.Contains(v, "EUR") || strings.Contains(v, "€"):
			return "EUR"
		case strings.Contains(v, "GBP") || strings.Contains(v, "£"):
			return "GBP"
		}
	}
	return ""
}

// detectLanguage guesses the document language from invoice synonyms.
func detectLanguage(text string) string {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "facture"):
		return "fr"
	case strings.Contains(t, "fattura"):
		return "it"
	case strings.Contains(t, "factura"):
		return "es"
	default:
		return "en"
	}
}

func kindFromFilename(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".pdf"):
		return "application/pdf"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".txt"):
		return "text/plain"
	default:
		return ""
	}
}

func countHits(content string, words []string) int {
	hits := 0
	for _, w := range words {
		if strings.Contains(content, w) {
			hits++
		}
	}
	return hits
}

// sortedKeys gives deterministic entity ordering regardless of map
// iteration order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// titleCase renders snake_case field names as "Field Name".
func titleCase(key string) string {
	parts := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
