package models

// Email classification categories.
const (
	CategoryOnboarding = "Onboarding"
	CategoryDispute    = "Dispute"
	CategoryOther      = "Other"
)

// Priority levels.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// Sentiment values.
const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// Document types.
const (
	DocTypeID              = "ID_Document"
	DocTypeFinancial       = "Financial_Document"
	DocTypeProofOfAddress  = "Proof_of_Address"
	DocTypeBusiness        = "Business_Document"
	DocTypeOther           = "Other"
	DocTypeProcessingError = "Processing_Error"
)

// Tamper risk levels.
const (
	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// ERP integration statuses.
const (
	ERPStatusSuccess = "Success"
	ERPStatusPartial = "Partial Success"
	ERPStatusSkipped = "Skipped"
	ERPStatusError   = "Error"
)

// Verification outcomes derived from the combined stage results.
const (
	VerificationVerified = "verified"
	VerificationFlagged  = "flagged"
	VerificationPending  = "pending"
)

// ClassificationResult is always fully populated, even when the inference
// call failed and the keyword fallback supplied the values.
type ClassificationResult struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
	Reasoning  string   `json:"reasoning"`
}

// DocumentAnalysisResult carries extracted document data. On extraction
// failure DocumentType is Processing_Error and Confidence is 0, never a
// silent nil.
type DocumentAnalysisResult struct {
	DocumentType      string         `json:"documentType"`
	PageCount         int            `json:"pageCount"`
	Entities          []string       `json:"entities"`
	DetectedCurrency  string         `json:"detectedCurrency,omitempty"`
	Confidence        float64        `json:"confidence"`
	ReceivedAt        string         `json:"receivedAt"`
	Preview           string         `json:"preview"`
	ExtractedData     map[string]any `json:"extractedData,omitempty"`
	ProcessingSeconds float64        `json:"processingTime"`
}

// AnalysisDetails is the fixed set of tamper sub-checks. The flags are
// derived from the overall issue count, a heuristic approximation rather
// than independently measured forensic signals.
type AnalysisDetails struct {
	MetadataConsistency  bool `json:"metadataConsistency"`
	PixelAnalysis        bool `json:"pixelAnalysis"`
	CompressionArtifacts bool `json:"compressionArtifacts"`
	EditingTraces        bool `json:"editingTraces"`
}

// TamperDetectionResult reports document authenticity. DetectedIssues is
// non-empty whenever RiskLevel differs from Low.
type TamperDetectionResult struct {
	IsAuthentic       bool            `json:"isAuthentic"`
	ConfidenceScore   float64         `json:"confidenceScore"`
	DetectedIssues    []string        `json:"detectedIssues"`
	RiskLevel         string          `json:"riskLevel"`
	AnalysisDetails   AnalysisDetails `json:"analysisDetails"`
	ProcessingSeconds float64         `json:"processingTime"`
}

// ERPIntegrationResult is created once per run, after all AI stages, and
// never mutated afterward. CustomerID may be an external identifier or a
// locally generated fallback.
type ERPIntegrationResult struct {
	CustomerID string `json:"customerId"`
	Status     string `json:"status"`
	Message    string `json:"message"`
}

// WorkflowResult is the aggregated outcome of one run. DocumentAnalysis
// and TamperDetection are present iff at least one attachment was
// supplied; degraded results still count as present.
type WorkflowResult struct {
	EmailClassification ClassificationResult    `json:"emailClassification"`
	DocumentAnalysis    *DocumentAnalysisResult `json:"documentAnalysis,omitempty"`
	TamperDetection     *TamperDetectionResult  `json:"tamperDetection,omitempty"`
	ERPIntegration      ERPIntegrationResult    `json:"erpIntegration"`
	ProcessingSeconds   float64                 `json:"processingTime"`
}
