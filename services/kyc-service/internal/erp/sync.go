package erp

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jupiterbrains/kyc-platform/internal/models"
)

// Invoker is the surface of the Odoo client used by RecordSync. A nil
// or unconfigured invoker degrades every sync to the Skipped path.
type Invoker interface {
	CreateRecord(ctx context.Context, model string, data map[string]any) (int, error)
	SearchRecords(ctx context.Context, model string, domain []any, fields []string) ([]map[string]any, error)
}

var _ Invoker = (*Client)(nil)

// CaseInput carries the workflow facts a case record is built from.
type CaseInput struct {
	CustomerName  string
	CustomerEmail string
	Subject       string
	Description   string
	Priority      string
}

// RecordSync mirrors workflow outcomes into the ERP. Lookups are
// idempotent on customer email and all errors are absorbed into the
// result status so a dead ERP never fails a workflow.
type RecordSync struct {
	client Invoker
}

func NewRecordSync(client Invoker) *RecordSync {
	return &RecordSync{client: client}
}

// UpsertCustomer finds or creates the customer and returns its record
// id, or 0 when the customer could not be resolved.
func (s *RecordSync) UpsertCustomer(ctx context.Context, name, email string) int {
	if s == nil || s.client == nil {
		return 0
	}

	if email != "" {
		records, err := s.client.SearchRecords(ctx, "res.partner",
			[]any{[]any{"email", "=", email}}, []string{"id", "name"})
		if err != nil {
			log.Printf("[ERP] customer lookup by email failed: %v", err)
		} else if len(records) > 0 {
			if id := recordID(records[0]); id != 0 {
				log.Printf("[ERP] matched existing customer %d by email", id)
				return id
			}
		}
	}

	if name != "" {
		records, err := s.client.SearchRecords(ctx, "res.partner",
			[]any{[]any{"name", "=", name}}, []string{"id", "name"})
		if err != nil {
			log.Printf("[ERP] customer lookup by name failed: %v", err)
		} else if len(records) > 0 {
			if id := recordID(records[0]); id != 0 {
				log.Printf("[ERP] matched existing customer %d by name", id)
				return id
			}
		}
	}

	id, err := s.client.CreateRecord(ctx, "res.partner", map[string]any{
		"name":          name,
		"email":         email,
		"is_company":    false,
		"customer_rank": 1,
	})
	if err != nil {
		log.Printf("[ERP] customer create failed: %v", err)
		return 0
	}
	log.Printf("[ERP] created customer %d (%s)", id, name)
	return id
}

// CreateCaseRecord opens a case against the customer, preferring the
// helpdesk model and falling back to a project task when the helpdesk
// module is not installed. It is never attempted without a customer.
func (s *RecordSync) CreateCaseRecord(ctx context.Context, customerID int, in CaseInput) int {
	if s == nil || s.client == nil || customerID == 0 {
		return 0
	}

	id, err := s.client.CreateRecord(ctx, "helpdesk.ticket", map[string]any{
		"name":        in.Subject,
		"description": in.Description,
		"partner_id":  customerID,
		"priority":    casePriority(in.Priority),
	})
	if err == nil {
		log.Printf("[ERP] created helpdesk ticket %d", id)
		return id
	}
	log.Printf("[ERP] helpdesk ticket create failed, trying project task: %v", err)

	id, err = s.client.CreateRecord(ctx, "project.task", map[string]any{
		"name":        in.Subject,
		"description": in.Description,
		"partner_id":  customerID,
		"priority":    casePriority(in.Priority),
	})
	if err != nil {
		log.Printf("[ERP] project task create failed: %v", err)
		return 0
	}
	log.Printf("[ERP] created project task %d", id)
	return id
}

// Sync upserts the customer, opens a case, and folds the outcome into
// a single result. It never returns an error.
func (s *RecordSync) Sync(ctx context.Context, in CaseInput) models.ERPIntegrationResult {
	if s == nil || s.client == nil {
		return models.ERPIntegrationResult{
			CustomerID: localReference(),
			Status:     models.ERPStatusError,
			Message:    "ERP integration not configured",
		}
	}

	customerID := s.UpsertCustomer(ctx, in.CustomerName, in.CustomerEmail)
	if customerID == 0 {
		return models.ERPIntegrationResult{
			CustomerID: localReference(),
			Status:     models.ERPStatusSkipped,
			Message:    "Customer could not be resolved in ERP, local reference assigned",
		}
	}

	caseID := s.CreateCaseRecord(ctx, customerID, in)
	if caseID == 0 {
		return models.ERPIntegrationResult{
			CustomerID: fmt.Sprintf("%d", customerID),
			Status:     models.ERPStatusPartial,
			Message:    fmt.Sprintf("Customer record %d synced, case creation failed", customerID),
		}
	}

	return models.ERPIntegrationResult{
		CustomerID: fmt.Sprintf("%d", customerID),
		Status:     models.ERPStatusSuccess,
		Message:    fmt.Sprintf("Customer record %d synced, case %d created", customerID, caseID),
	}
}

// localReference mints a workflow-local customer reference used when
// no ERP record exists.
func localReference() string {
	return "KYC-" + uuid.NewString()[:8]
}

func recordID(record map[string]any) int {
	switch v := record["id"].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// casePriority maps workflow priority onto Odoo's "0".."3" scale.
func casePriority(p string) string {
	switch p {
	case models.PriorityHigh:
		return "3"
	case models.PriorityMedium:
		return "2"
	default:
		return "1"
	}
}
