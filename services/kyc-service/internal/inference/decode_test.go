package inference

import (
	"fmt"
	"testing"
)

type payload struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

func (p payload) validate() error {
	if p.Category == "" {
		return fmt.Errorf("category missing")
	}
	if p.Confidence < 0 || p.Confidence > 1 {
		return fmt.Errorf("confidence out of range")
	}
	return nil
}

func TestDecodeStrict(t *testing.T) {
	var p payload
	err := Decoder{}.Decode(`{"category": "Onboarding", "confidence": 0.9}`, &p, func() error { return p.validate() })
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Category != "Onboarding" || p.Confidence != 0.9 {
		t.Errorf("decoded %+v", p)
	}
}

func TestDecodeFenced(t *testing.T) {
	var p payload
	raw := "```json\n{\"category\": \"Other\", \"confidence\": 0.5}\n```"
	if err := (Decoder{}).Decode(raw, &p, func() error { return p.validate() }); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Category != "Other" {
		t.Errorf("category = %q", p.Category)
	}
}

func TestDecodeRepairsTrailingComma(t *testing.T) {
	var p payload
	raw := `{"category": "Dispute", "confidence": 0.8,}`
	if err := (Decoder{}).Decode(raw, &p, func() error { return p.validate() }); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Category != "Dispute" {
		t.Errorf("category = %q", p.Category)
	}
}

func TestDecodeRepairsSingleQuotes(t *testing.T) {
	var p payload
	raw := `{'category': 'Onboarding', 'confidence': 0.7}`
	if err := (Decoder{}).Decode(raw, &p, func() error { return p.validate() }); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p.Category != "Onboarding" {
		t.Errorf("category = %q", p.Category)
	}
}

func TestDecodeRejectsInvalidPayload(t *testing.T) {
	var p payload
	err := Decoder{}.Decode(`{"category": "", "confidence": 0.9}`, &p, func() error { return p.validate() })
	if err == nil {
		t.Fatal("want error for payload that fails validation on both passes")
	}
}

func TestDecodeRejectsNonJSONProse(t *testing.T) {
	var p payload
	err := Decoder{}.Decode("I cannot help with that request.", &p, func() error { return p.validate() })
	if err == nil {
		t.Fatal("want error for prose input")
	}
}
