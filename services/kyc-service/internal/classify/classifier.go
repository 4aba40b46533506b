package classify

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/jupiterbrains/kyc-platform/internal/models"
	"github.com/jupiterbrains/kyc-platform/services/kyc-service/internal/inference"
)

const systemPrompt = `You are an expert AI system for KYC (Know Your Customer) email classification in the financial services industry.
Your task is to analyze customer emails and classify them into specific categories for automated processing.

CLASSIFICATION CATEGORIES:
1. "Onboarding" - New customer account applications, KYC document submissions, identity verification requests
2. "Dispute" - Account verification disputes, rejection appeals, complaints about the KYC process
3. "Other" - General inquiries, questions about requirements, support requests

PRIORITY LEVELS:
- "High" - Urgent requests, disputes, rejected applications, time-sensitive matters
- "Medium" - Standard applications, follow-ups, document resubmissions
- "Low" - General questions, informational requests

SENTIMENT ANALYSIS:
- "Positive" - Appreciative, cooperative, satisfied tone
- "Negative" - Frustrated, angry, disappointed, complaint tone
- "Neutral" - Professional, matter-of-fact, informational tone

You must respond in valid JSON format only. Provide detailed reasoning for your classification.`

const userPromptFormat = `Analyze this customer email for KYC classification:

SUBJECT: %s

BODY: %s

Respond with a JSON object containing:
{
    "category": "Onboarding|Dispute|Other",
    "priority": "High|Medium|Low",
    "sentiment": "Positive|Negative|Neutral",
    "confidence": 0.0-1.0,
    "tags": ["relevant", "tags", "here"],
    "reasoning": "Detailed explanation of classification decision"
}

Focus on the customer's intent, urgency, emotional tone, and any KYC-related keywords or phrases.`

// Keyword vocabularies for the deterministic fallback path. The category
// score is hit count normalized by vocabulary size; ties resolve in the
// order Onboarding, Dispute, with Other as the zero-score default.
var (
	onboardingWords = []string{"kyc", "onboard", "verification", "verify", "application", "new account", "account", "open", "register", "signup", "identity"}
	disputeWords    = []string{"dispute", "appeal", "rejected", "complaint", "chargeback", "fraud"}

	urgentWords   = []string{"urgent", "asap", "immediately", "emergency", "dispute", "rejected", "complaint"}
	followUpWords = []string{"follow up", "follow-up", "following up", "resubmit", "resubmission", "reminder"}

	negativeWords = []string{"angry", "frustrated", "upset", "disappointed", "unacceptable", "complaint"}
	positiveWords = []string{"thank", "thanks", "appreciate", "great", "happy"}
)

// Empirical confidence boosts for the fallback path. Tunable constants,
// not invariants.
const (
	fallbackBaseConfidence   = 0.70
	fallbackCategoryBoost    = 0.15
	fallbackPriorityBoost    = 0.10
	fallbackTagBoost         = 0.05
	fallbackConfidenceCeil   = 0.98
	defaultGroqModel         = "llama-3.1-70b-versatile"
	defaultGroqTemperature   = 0.1
	defaultClassifyMaxTokens = 500
)

// Classifier assigns category, priority, sentiment, and tags to inbound
// email content. The inference provider is the primary path; a keyword
// matcher is the guaranteed fallback.
type Classifier struct {
	provider    inference.Provider
	decoder     inference.Decoder
	model       string
	temperature float64
	maxTokens   int
}

// New builds a classifier. A nil provider means the fallback path only.
func New(provider inference.Provider, model string) *Classifier {
	if model == "" {
		model = defaultGroqModel
	}
	return &Classifier{
		provider:    provider,
		model:       model,
		temperature: defaultGroqTemperature,
		maxTokens:   defaultClassifyMaxTokens,
	}
}

type aiClassification struct {
	Category   string   `json:"category"`
	Priority   string   `json:"priority"`
	Sentiment  string   `json:"sentiment"`
	Confidence float64  `json:"confidence"`
	Tags       []string `json:"tags"`
	Reasoning  string   `json:"reasoning"`
}

func (a aiClassification) validate() error {
	switch a.Category {
	case models.CategoryOnboarding, models.CategoryDispute, models.CategoryOther:
	default:
		return fmt.Errorf("category %q is not valid", a.Category)
	}
	switch a.Priority {
	case models.PriorityHigh, models.PriorityMedium, models.PriorityLow:
	default:
		return fmt.Errorf("priority %q is not valid", a.Priority)
	}
	switch a.Sentiment {
	case models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral:
	default:
		return fmt.Errorf("sentiment %q is not valid", a.Sentiment)
	}
	if a.Confidence < 0 || a.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range [0, 1]", a.Confidence)
	}
	return nil
}

// Classify always returns a fully populated result; it never fails.
func (c *Classifier) Classify(ctx context.Context, subject, body string, requester models.Requester) models.ClassificationResult {
	if c.provider == nil {
		return c.fallback(subject, body, requester)
	}

	resp, err := c.provider.Complete(ctx, inference.Request{
		System:      systemPrompt,
		User:        fmt.Sprintf(userPromptFormat, subject, body),
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		JSONMode:    true,
	})
	if err != nil {
		log.Printf("[EMAIL] inference call failed, using keyword fallback: %v", err)
		return c.fallback(subject, body, requester)
	}

	var ai aiClassification
	if err := c.decoder.Decode(resp.Content, &ai, func() error { return ai.validate() }); err != nil {
		log.Printf("[EMAIL] unusable inference response, using keyword fallback: %v", err)
		return c.fallback(subject, body, requester)
	}

	tags := mergeTags(ai.Tags, contextTags(subject, body, requester))

	return models.ClassificationResult{
		Category:   ai.Category,
		Priority:   ai.Priority,
		Sentiment:  ai.Sentiment,
		Confidence: ai.Confidence,
		Tags:       tags,
		Reasoning:  ai.Reasoning,
	}
}

// fallback is the deterministic keyword classifier. It never fails and
// never returns a partial result.
func (c *Classifier) fallback(subject, body string, requester models.Requester) models.ClassificationResult {
	content := strings.ToLower(subject + " " + body)

	category := models.CategoryOther
	bestScore := 0.0
	for _, candidate := range []struct {
		name  string
		words []string
	}{
		{models.CategoryOnboarding, onboardingWords},
		{models.CategoryDispute, disputeWords},
	} {
		score := float64(countHits(content, candidate.words)) / float64(len(candidate.words))
		if score > bestScore {
			bestScore = score
			category = candidate.name
		}
	}

	priority := models.PriorityLow
	switch {
	case countHits(content, urgentWords) > 0:
		priority = models.PriorityHigh
	case countHits(content, followUpWords) > 0:
		priority = models.PriorityMedium
	}

	sentiment := models.SentimentNeutral
	switch {
	case countHits(content, negativeWords) > 0:
		sentiment = models.SentimentNegative
	case countHits(content, positiveWords) > 0:
		sentiment = models.SentimentPositive
	}

	tags := mergeTags([]string{"fallback_classification"}, contextTags(subject, body, requester))

	confidence := fallbackBaseConfidence
	if category != models.CategoryOther {
		confidence += fallbackCategoryBoost
	}
	if priority == models.PriorityHigh {
		confidence += fallbackPriorityBoost
	}
	if len(tags) > 1 {
		confidence += fallbackTagBoost
	}
	if confidence > fallbackConfidenceCeil {
		confidence = fallbackConfidenceCeil
	}

	return models.ClassificationResult{
		Category:   category,
		Priority:   priority,
		Sentiment:  sentiment,
		Confidence: confidence,
		Tags:       tags,
		Reasoning:  "Classified using keyword analysis; inference service unavailable",
	}
}

// contextTags derives tags from independent boolean content checks. Tags
// are a union, not mutually exclusive.
func contextTags(subject, body string, requester models.Requester) []string {
	content := strings.ToLower(subject + " " + body)

	var tags []string
	if countHits(content, []string{"attach", "attached", "document", "file"}) > 0 {
		tags = append(tags, "documents_mentioned")
	}
	if countHits(content, []string{"asap", "urgent", "immediately", "emergency"}) > 0 {
		tags = append(tags, "urgent_request")
	}
	if countHits(content, []string{"new", "first", "initial", "opening"}) > 0 {
		tags = append(tags, "new_customer")
	}
	if requester != nil && requester.Email() != "" {
		tags = append(tags, "authenticated_user")
	}
	return tags
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

func mergeTags(groups ...[]string) []string {
	seen := make(map[string]bool)
	var merged []string
	for _, group := range groups {
		for _, tag := range group {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			merged = append(merged, tag)
		}
	}
	sort.Strings(merged)
	return merged
}
