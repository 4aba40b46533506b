package workflow

import (
	"context"
	"testing"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/classify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/docanalysis"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/erp"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/notify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/store"
)

// degradedOrchestrator wires every stage without external services: no
// inference provider, no ERP, no database, mock mailer.
func degradedOrchestrator() *Orchestrator {
	return New(
		classify.New(nil, ""),
		extract.New(""),
		docanalysis.New(nil, ""),
		erp.NewRecordSync(nil),
		store.NewRunStore(nil),
		notify.NewMailer(notify.Config{}),
	)
}

func TestRunWithoutAttachments(t *testing.T) {
	o := degradedOrchestrator()

	result := o.Run(context.Background(), models.EmailInput{
		Subject: "New Account Application",
		Body:    "I am John Smith and I would like to open a new account.",
	}, nil)

	if result.EmailClassification.Category != models.CategoryOnboarding {
		t.Errorf("category = %q", result.EmailClassification.Category)
	}
	if result.DocumentAnalysis != nil {
		t.Errorf("document analysis must be absent without attachments")
	}
	if result.TamperDetection != nil {
		t.Errorf("tamper detection must be absent without attachments")
	}
	if result.ERPIntegration.Status != models.ERPStatusError {
		t.Errorf("erp status = %q, want %q without a configured client", result.ERPIntegration.Status, models.ERPStatusError)
	}
	if result.ProcessingSeconds < 0 {
		t.Errorf("processing time = %f", result.ProcessingSeconds)
	}
}

func TestRunWithAttachment(t *testing.T) {
	o := degradedOrchestrator()

	result := o.Run(context.Background(), models.EmailInput{
		Subject: "KYC documents",
		Body:    "Please find my invoice attached.",
		Attachments: []models.FileAttachment{{
			Filename:    "invoice.txt",
			ContentType: "text/plain",
			Data:        []byte("Invoice 2024-001, total amount $250, bill to John Smith"),
		}},
	}, nil)

	if result.DocumentAnalysis == nil {
		t.Fatal("document analysis must be present with an attachment")
	}
	if result.TamperDetection == nil {
		t.Fatal("tamper detection must be present with an attachment")
	}
	if result.DocumentAnalysis.DocumentType != models.DocTypeFinancial {
		t.Errorf("document type = %q", result.DocumentAnalysis.DocumentType)
	}
	// Attachment is under the plausible-size threshold.
	if result.TamperDetection.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q", result.TamperDetection.RiskLevel)
	}
}

func TestRunDegradedNeverPanics(t *testing.T) {
	o := degradedOrchestrator()

	result := o.Run(context.Background(), models.EmailInput{
		Subject: "",
		Body:    "",
		Attachments: []models.FileAttachment{{
			Filename:    "garbage.pdf",
			ContentType: "application/pdf",
			Data:        []byte{0x00, 0x01, 0x02},
		}},
	}, nil)

	if result.EmailClassification.Category == "" {
		t.Errorf("classification must always be populated")
	}
	if result.DocumentAnalysis == nil || result.TamperDetection == nil {
		t.Errorf("attachment results must be present even when degraded")
	}
}

func TestVerificationStatus(t *testing.T) {
	authentic := func(conf float64) *models.TamperDetectionResult {
		return &models.TamperDetectionResult{IsAuthentic: true, ConfidenceScore: conf}
	}
	tampered := &models.TamperDetectionResult{IsAuthentic: false, ConfidenceScore: 0.65}

	cases := []struct {
		name string
		c    models.ClassificationResult
		doc  *models.DocumentAnalysisResult
		t    *models.TamperDetectionResult
		want string
	}{
		{"tampered", models.ClassificationResult{}, nil, tampered, models.VerificationFlagged},
		{"verified", models.ClassificationResult{}, &models.DocumentAnalysisResult{Confidence: 0.9}, authentic(0.95), models.VerificationVerified},
		{"low_doc_confidence", models.ClassificationResult{}, &models.DocumentAnalysisResult{Confidence: 0.3}, authentic(0.8), models.VerificationPending},
		{"dispute", models.ClassificationResult{Category: models.CategoryDispute}, nil, nil, models.VerificationFlagged},
		{"default", models.ClassificationResult{Category: models.CategoryOther}, nil, nil, models.VerificationPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := verificationStatus(tc.c, tc.doc, tc.t); got != tc.want {
				t.Errorf("verificationStatus = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestOverallConfidence(t *testing.T) {
	c := models.ClassificationResult{Confidence: 0.9}
	doc := &models.DocumentAnalysisResult{Confidence: 0.8}
	tam := &models.TamperDetectionResult{ConfidenceScore: 0.6}

	if got := overallConfidence(c, nil, nil); got != 0.9 {
		t.Errorf("classification only = %v", got)
	}
	if got := overallConfidence(c, doc, nil); got != 0.86 {
		t.Errorf("classification + doc = %v, want 0.86", got)
	}
	if got := overallConfidence(c, doc, tam); got != 0.79 {
		t.Errorf("all stages = %v, want 0.79", got)
	}
}
