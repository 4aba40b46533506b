package workflow

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/classify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/docanalysis"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/erp"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/extract"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/notify"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/store"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/tamper"
)

// Per-stage deadlines. A stage that overruns degrades on its own; the
// run as a whole is never aborted by a slow stage.
const (
	classifyTimeout = 30 * time.Second
	documentTimeout = 60 * time.Second
	erpTimeout      = 30 * time.Second
)

// Orchestrator runs the complete KYC pipeline for one inbound email.
type Orchestrator struct {
	classifier *classify.Classifier
	extractor  *extract.Extractor
	analyzer   *docanalysis.Analyzer
	records    *erp.RecordSync
	runs       *store.RunStore
	mailer     *notify.Mailer
}

func New(classifier *classify.Classifier, extractor *extract.Extractor, analyzer *docanalysis.Analyzer,
	records *erp.RecordSync, runs *store.RunStore, mailer *notify.Mailer) *Orchestrator {
	return &Orchestrator{
		classifier: classifier,
		extractor:  extractor,
		analyzer:   analyzer,
		records:    records,
		runs:       runs,
		mailer:     mailer,
	}
}

// Run executes classification, document analysis, tamper detection and
// ERP sync for one email. Classification runs concurrently with the
// document stages; ERP sync starts only after all of them finish. Run
// always returns a fully populated result.
func (o *Orchestrator) Run(ctx context.Context, email models.EmailInput, requester models.Requester) models.WorkflowResult {
	start := time.Now()
	runID := uuid.New()
	log.Printf("[KYC] workflow %s started: %q (%d attachments)", runID, email.Subject, len(email.Attachments))

	var (
		classification models.ClassificationResult
		docAnalysis    *models.DocumentAnalysisResult
		tamperResult   *models.TamperDetectionResult
	)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		stageCtx, cancel := context.WithTimeout(ctx, classifyTimeout)
		defer cancel()
		classification = o.classifier.Classify(stageCtx, email.Subject, email.Body, requester)
	}()

	if len(email.Attachments) > 0 {
		att := email.Attachments[0]

		wg.Add(1)
		go func() {
			defer wg.Done()
			stageCtx, cancel := context.WithTimeout(ctx, documentTimeout)
			defer cancel()
			text := o.extractor.Extract(stageCtx, att)
			result := o.analyzer.Analyze(stageCtx, text, att.Filename, requester)
			docAnalysis = &result
		}()

		wg.Add(1)
		go func() {
			defer wg.Done()
			result := tamper.Detect(att.Data, att.ContentType)
			tamperResult = &result
		}()
	}

	wg.Wait()

	verification := verificationStatus(classification, docAnalysis, tamperResult)
	confidence := overallConfidence(classification, docAnalysis, tamperResult)

	customerName := resolveCustomerName(docAnalysis, email.Subject, email.Body)
	customerEmail := resolveCustomerEmail(requester, docAnalysis, email.Body)

	erpCtx, cancel := context.WithTimeout(ctx, erpTimeout)
	defer cancel()
	erpResult := o.records.Sync(erpCtx, erp.CaseInput{
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		Subject:       email.Subject,
		Description:   caseDescription(runID, classification, docAnalysis, tamperResult, verification, confidence),
		Priority:      classification.Priority,
	})

	result := models.WorkflowResult{
		EmailClassification: classification,
		DocumentAnalysis:    docAnalysis,
		TamperDetection:     tamperResult,
		ERPIntegration:      erpResult,
		ProcessingSeconds:   round2(time.Since(start).Seconds()),
	}

	o.persist(ctx, runID, email.Subject, result, verification, confidence)
	o.notifyCustomer(runID, classification, tamperResult, customerName, customerEmail)

	log.Printf("[KYC] workflow %s finished in %.2fs: category=%s erp=%s verification=%s",
		runID, result.ProcessingSeconds, classification.Category, erpResult.Status, verification)
	return result
}

// verificationStatus folds the stage outcomes into one label.
func verificationStatus(c models.ClassificationResult, doc *models.DocumentAnalysisResult, t *models.TamperDetectionResult) string {
	if t != nil && !t.IsAuthentic {
		return models.VerificationFlagged
	}
	if t != nil && t.IsAuthentic && t.ConfidenceScore > 0.9 {
		return models.VerificationVerified
	}
	if doc != nil && doc.Confidence < 0.5 {
		return models.VerificationPending
	}
	if c.Category == models.CategoryDispute {
		return models.VerificationFlagged
	}
	return models.VerificationPending
}

// overallConfidence is a weighted blend of the stage confidences.
func overallConfidence(c models.ClassificationResult, doc *models.DocumentAnalysisResult, t *models.TamperDetectionResult) float64 {
	switch {
	case doc != nil && t != nil:
		return round2(0.4*c.Confidence + 0.35*doc.Confidence + 0.25*t.ConfidenceScore)
	case doc != nil:
		return round2(0.6*c.Confidence + 0.4*doc.Confidence)
	default:
		return round2(c.Confidence)
	}
}

func caseDescription(runID uuid.UUID, c models.ClassificationResult, doc *models.DocumentAnalysisResult,
	t *models.TamperDetectionResult, verification string, confidence float64) string {
	desc := fmt.Sprintf("KYC workflow %s\nCategory: %s (%.2f)\nPriority: %s\nSentiment: %s\n",
		runID, c.Category, c.Confidence, c.Priority, c.Sentiment)
	if doc != nil {
		desc += fmt.Sprintf("Document: %s (%.2f)\n", doc.DocumentType, doc.Confidence)
	}
	if t != nil {
		desc += fmt.Sprintf("Tamper risk: %s, authentic=%t\n", t.RiskLevel, t.IsAuthentic)
	}
	desc += fmt.Sprintf("Verification: %s\nOverall confidence: %.2f", verification, confidence)
	return desc
}

// persist stores the run for audit. Failures are logged, never surfaced.
func (o *Orchestrator) persist(ctx context.Context, runID uuid.UUID, subject string,
	result models.WorkflowResult, verification string, confidence float64) {
	risk := ""
	if result.TamperDetection != nil {
		risk = result.TamperDetection.RiskLevel
	}
	err := o.runs.Save(ctx, store.RunRecord{
		ID:                runID,
		Subject:           subject,
		Category:          result.EmailClassification.Category,
		CustomerID:        result.ERPIntegration.CustomerID,
		Status:            result.ERPIntegration.Status,
		RiskLevel:         risk,
		Verification:      verification,
		Confidence:        confidence,
		ProcessingSeconds: result.ProcessingSeconds,
		CreatedAt:         time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[KYC] workflow %s audit save failed: %v", runID, err)
	}
}

// notifyCustomer sends at most one email per run. Delivery failures
// are logged, never surfaced.
func (o *Orchestrator) notifyCustomer(runID uuid.UUID, c models.ClassificationResult,
	t *models.TamperDetectionResult, customerName, customerEmail string) {
	if o.mailer == nil {
		return
	}

	templateName := ""
	switch {
	case t != nil && !t.IsAuthentic:
		templateName = notify.TemplateDocumentFlagged
	case c.Category == models.CategoryOnboarding:
		templateName = notify.TemplateOnboardingReceived
	}
	if templateName == "" {
		return
	}

	if _, err := o.mailer.Send(templateName, customerEmail, customerName, runID.String()); err != nil {
		log.Printf("[KYC] workflow %s notification failed: %v", runID, err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
