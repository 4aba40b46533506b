package mock

import (
	"fmt"
	"sync"
)

// Record is one stored ERP record. Fields are schemaless, like Odoo's
// JSON-RPC surface.
type Record map[string]any

var (
	// Per-model record storage - maintained across calls
	storeMutex sync.RWMutex
	records    map[string][]Record
	nextID     int
)

func init() {
	records = map[string][]Record{
		"res.partner":     {},
		"helpdesk.ticket": {},
		"project.task":    {},
	}
	nextID = 1

	// Seed a few customers so lookups have something to match
	seedCustomers := []Record{
		{"name": "John Smith", "email": "john.smith@example.com", "is_company": false, "customer_rank": 1},
		{"name": "Maria Garcia", "email": "maria.garcia@company.com", "is_company": false, "customer_rank": 1},
		{"name": "Acme Trading Ltd", "email": "accounts@acmetrading.com", "is_company": true, "customer_rank": 1},
		{"name": "Luca Rossi", "email": "luca.rossi@business.org", "is_company": false, "customer_rank": 1},
	}
	for _, customer := range seedCustomers {
		Create("res.partner", customer)
	}
}

// Create stores a record and returns its id.
func Create(model string, data Record) (int, error) {
	storeMutex.Lock()
	defer storeMutex.Unlock()

	if _, ok := records[model]; !ok {
		return 0, fmt.Errorf("unknown model %q", model)
	}

	stored := Record{}
	for k, v := range data {
		stored[k] = v
	}
	stored["id"] = nextID
	nextID++

	records[model] = append(records[model], stored)
	return stored["id"].(int), nil
}

// SearchRead filters a model's records by an Odoo-style domain. Only
// simple [field, "=", value] triplets are supported, combined with
// implicit AND, which covers what the KYC service sends.
func SearchRead(model string, domain []any, fields []string) ([]Record, error) {
	storeMutex.RLock()
	defer storeMutex.RUnlock()

	stored, ok := records[model]
	if !ok {
		return nil, fmt.Errorf("unknown model %q", model)
	}

	matched := []Record{}
	for _, rec := range stored {
		if matchesDomain(rec, domain) {
			matched = append(matched, projection(rec, fields))
		}
	}
	return matched, nil
}

// Write updates every listed record with the given values.
func Write(model string, ids []int, data Record) (bool, error) {
	storeMutex.Lock()
	defer storeMutex.Unlock()

	stored, ok := records[model]
	if !ok {
		return false, fmt.Errorf("unknown model %q", model)
	}

	updated := false
	for _, rec := range stored {
		for _, id := range ids {
			if rec["id"] == id {
				for k, v := range data {
					if k != "id" {
						rec[k] = v
					}
				}
				updated = true
			}
		}
	}
	if !updated {
		return false, fmt.Errorf("no records matched in %s", model)
	}
	return true, nil
}

// Unlink removes the listed records.
func Unlink(model string, ids []int) (bool, error) {
	storeMutex.Lock()
	defer storeMutex.Unlock()

	stored, ok := records[model]
	if !ok {
		return false, fmt.Errorf("unknown model %q", model)
	}

	kept := stored[:0]
	removed := false
	for _, rec := range stored {
		drop := false
		for _, id := range ids {
			if rec["id"] == id {
				drop = true
				removed = true
			}
		}
		if !drop {
			kept = append(kept, rec)
		}
	}
	records[model] = kept

	if !removed {
		return false, fmt.Errorf("no records matched in %s", model)
	}
	return true, nil
}

func matchesDomain(rec Record, domain []any) bool {
	for _, clause := range domain {
		triplet, ok := clause.([]any)
		if !ok || len(triplet) != 3 {
			continue
		}
		field, _ := triplet[0].(string)
		op, _ := triplet[1].(string)
		if op != "=" {
			continue
		}
		if fmt.Sprintf("%v", rec[field]) != fmt.Sprintf("%v", triplet[2]) {
			return false
		}
	}
	return true
}

// projection copies the requested fields; id is always included.
func projection(rec Record, fields []string) Record {
	if len(fields) == 0 {
		out := Record{}
		for k, v := range rec {
			out[k] = v
		}
		return out
	}

	out := Record{"id": rec["id"]}
	for _, field := range fields {
		if v, ok := rec[field]; ok {
			out[field] = v
		}
	}
	return out
}
