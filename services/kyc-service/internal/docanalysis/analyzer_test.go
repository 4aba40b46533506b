package docanalysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/inference"
)

type stubProvider struct {
	content string
	err     error
	lastReq inference.Request
}

func (s *stubProvider) Complete(ctx context.Context, req inference.Request) (inference.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return inference.Response{}, s.err
	}
	return inference.Response{Content: s.content}, nil
}

func TestHeuristicIdentityDocument(t *testing.T) {
	a := New(nil, "")
	result := a.Analyze(context.Background(), "REPUBLIC OF EXAMPLE passport number X1234567", "passport_scan.pdf", nil)

	if result.DocumentType != models.DocTypeID {
		t.Errorf("type = %q, want %q", result.DocumentType, models.DocTypeID)
	}
	if result.Confidence != heuristicBaseConf {
		t.Errorf("confidence = %.2f, want %.2f", result.Confidence, heuristicBaseConf)
	}
	if result.ExtractedData["manual_review_required"] != true {
		t.Errorf("degraded result must request manual review: %v", result.ExtractedData)
	}
}

func TestHeuristicFinancialDocument(t *testing.T) {
	a := New(nil, "")
	result := a.Analyze(context.Background(), "Invoice 2024-001, total amount due on receipt", "invoice.pdf", nil)

	if result.DocumentType != models.DocTypeFinancial {
		t.Errorf("type = %q, want %q", result.DocumentType, models.DocTypeFinancial)
	}
}

func TestHeuristicNoSignal(t *testing.T) {
	a := New(nil, "")
	result := a.Analyze(context.Background(), "some unremarkable plain content here", "notes.txt", nil)

	if result.DocumentType != models.DocTypeOther {
		t.Errorf("type = %q, want %q", result.DocumentType, models.DocTypeOther)
	}
}

func TestShortTextSkipsInference(t *testing.T) {
	provider := &stubProvider{content: "should not be called"}
	a := New(provider, "")

	result := a.Analyze(context.Background(), "   x   ", "doc.pdf", nil)

	if provider.lastReq.Model != "" {
		t.Errorf("provider must not be called for unusable text")
	}
	if result.Confidence > heuristicBaseConf {
		t.Errorf("confidence = %.2f, degraded path must stay at or below %.2f", result.Confidence, heuristicBaseConf)
	}
}

func TestAnalyzeAIPath(t *testing.T) {
	provider := &stubProvider{content: `{
		"document_type": "Financial_Document",
		"extracted_entities": ["30-day payment terms"],
		"structured_data": {"invoice_number": "F-2024-17", "total_amount": "€ 1.250,00", "customer_name": "Maria Garcia"},
		"confidence": 0.91,
		"summary": "French invoice"
	}`}
	a := New(provider, "")

	result := a.Analyze(context.Background(),
		"FACTURE F-2024-17 pour Maria Garcia, montant total € 1.250,00",
		"facture.pdf", models.HeaderRequester{Addr: "ops@example.com"})

	if result.DocumentType != models.DocTypeFinancial {
		t.Errorf("type = %q", result.DocumentType)
	}
	if result.Confidence != 0.91 {
		t.Errorf("confidence = %.2f", result.Confidence)
	}
	if result.DetectedCurrency != "EUR" {
		t.Errorf("currency = %q, want EUR", result.DetectedCurrency)
	}

	want := []string{
		"File Type: PDF",
		"Customer Name: Maria Garcia",
		"Invoice Number: F-2024-17",
		"Total Amount: € 1.250,00",
		"30-day payment terms",
		"Processed by: ops@example.com",
	}
	if len(result.Entities) != len(want) {
		t.Fatalf("entities = %v, want %v", result.Entities, want)
	}
	for i := range want {
		if result.Entities[i] != want[i] {
			t.Errorf("entities[%d] = %q, want %q", i, result.Entities[i], want[i])
		}
	}

	// French content selects the French prompt variant.
	if !strings.Contains(provider.lastReq.System, languagePrompts["fr"].instructions) {
		t.Errorf("expected the French instructions in the system prompt")
	}
}

func TestAnalyzeMalformedResponseDegrades(t *testing.T) {
	provider := &stubProvider{content: "no structured output today"}
	a := New(provider, "")

	result := a.Analyze(context.Background(), "Invoice with a long enough body", "invoice.pdf", nil)

	if result.DocumentType != models.DocTypeFinancial {
		t.Errorf("type = %q, want heuristic financial classification", result.DocumentType)
	}
	if result.Confidence != heuristicBaseConf {
		t.Errorf("confidence = %.2f, want %.2f", result.Confidence, heuristicBaseConf)
	}
}

func TestAnalyzeProviderErrorDegrades(t *testing.T) {
	provider := &stubProvider{err: fmt.Errorf("upstream down")}
	a := New(provider, "")

	result := a.Analyze(context.Background(), "passport identity card content", "id.png", nil)

	if result.DocumentType != models.DocTypeID {
		t.Errorf("type = %q", result.DocumentType)
	}
}

func TestDetectLanguage(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"FACTURE numero 12", "fr"},
		{"Fattura numero 12", "it"},
		{"Factura numero 12", "es"},
		{"Invoice number 12", "en"},
		{"", "en"},
	}
	for _, tc := range cases {
		if got := detectLanguage(tc.text); got != tc.want {
			t.Errorf("detectLanguage(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestTitleCase(t *testing.T) {
	cases := map[string]string{
		"invoice_number": "Invoice Number",
		"name":           "Name",
		"total_amount":   "Total Amount",
	}
	for in, want := range cases {
		if got := titleCase(in); got != want {
			t.Errorf("titleCase(%q) = %q, want %q", in, got, want)
		}
	}
}
