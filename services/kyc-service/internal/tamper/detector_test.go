package tamper

import (
	"bytes"
	"testing"

	"github.com/jupiterbrains/kyc-platform/internal/models"
)

func paddedPDF(meta string) []byte {
	var b bytes.Buffer
	b.WriteString("%PDF-1.4\n")
	b.WriteString(meta)
	b.Write(bytes.Repeat([]byte{' '}, minPlausibleSize))
	return b.Bytes()
}

func TestDetectCleanDocument(t *testing.T) {
	result := Detect(paddedPDF("/Producer (Microsoft Word)"), "application/pdf")

	if !result.IsAuthentic {
		t.Errorf("clean document flagged: %+v", result)
	}
	if result.RiskLevel != models.RiskLow {
		t.Errorf("risk = %q, want %q", result.RiskLevel, models.RiskLow)
	}
	if len(result.DetectedIssues) != 0 {
		t.Errorf("issues = %v, want none", result.DetectedIssues)
	}
	if result.ConfidenceScore != 0.95 {
		t.Errorf("confidence = %.3f, want 0.95", result.ConfidenceScore)
	}
	if !result.AnalysisDetails.MetadataConsistency {
		t.Errorf("metadata consistency should hold with zero issues")
	}
}

func TestDetectSmallFile(t *testing.T) {
	result := Detect([]byte("tiny"), "text/plain")

	if !result.IsAuthentic {
		t.Errorf("a single issue must not flag the document")
	}
	if result.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q, want %q", result.RiskLevel, models.RiskMedium)
	}
	if len(result.DetectedIssues) != 1 {
		t.Errorf("issues = %v, want exactly the size issue", result.DetectedIssues)
	}
	if result.ConfidenceScore != 0.85 {
		t.Errorf("confidence = %.3f, want 0.85", result.ConfidenceScore)
	}
}

func TestDetectEditingToolMetadata(t *testing.T) {
	result := Detect(paddedPDF("/Creator (Adobe Photoshop CS6)"), "application/pdf")

	if result.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q, want %q", result.RiskLevel, models.RiskMedium)
	}
	if len(result.DetectedIssues) != 1 {
		t.Errorf("issues = %v, want the editing-tool issue", result.DetectedIssues)
	}
	if result.ConfidenceScore != 0.75 {
		t.Errorf("confidence = %.3f, want 0.75", result.ConfidenceScore)
	}
}

func TestDetectSmallEditedFile(t *testing.T) {
	result := Detect([]byte("%PDF-1.4 /Producer (GIMP 2.10)"), "application/pdf")

	if result.IsAuthentic {
		t.Errorf("two issues must flag the document")
	}
	if result.RiskLevel != models.RiskMedium {
		t.Errorf("risk = %q, want %q", result.RiskLevel, models.RiskMedium)
	}
	if len(result.DetectedIssues) != 2 {
		t.Errorf("issues = %v, want size + editing tool", result.DetectedIssues)
	}
	if !result.AnalysisDetails.EditingTraces {
		t.Errorf("editing traces should be set with more than one issue")
	}
}

func TestDetectEditingMetadataIgnoredOutsidePDF(t *testing.T) {
	data := append([]byte("/Creator (photoshop)"), bytes.Repeat([]byte{'x'}, minPlausibleSize)...)
	result := Detect(data, "text/plain")

	if len(result.DetectedIssues) != 0 {
		t.Errorf("issues = %v, metadata scan applies to PDFs only", result.DetectedIssues)
	}
}

func TestDetectRiskMatchesIssueCount(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		ct   string
	}{
		{"clean", paddedPDF(""), "application/pdf"},
		{"small", []byte("x"), "text/plain"},
		{"small_edited", []byte("/Producer (gimp)"), "application/pdf"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := Detect(tc.data, tc.ct)
			if (result.RiskLevel == models.RiskLow) != (len(result.DetectedIssues) == 0) {
				t.Errorf("risk %q inconsistent with issues %v", result.RiskLevel, result.DetectedIssues)
			}
			if result.DetectedIssues == nil {
				t.Errorf("issues must be non-nil")
			}
			if result.ConfidenceScore < 0.5 || result.ConfidenceScore > 1 {
				t.Errorf("confidence %.3f out of range", result.ConfidenceScore)
			}
		})
	}
}
