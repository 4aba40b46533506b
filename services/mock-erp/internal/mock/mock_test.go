package mock

import "testing"

func TestSeededCustomersSearchable(t *testing.T) {
	records, err := SearchRead("res.partner", []any{[]any{"email", "=", "john.smith@example.com"}}, []string{"id", "name"})
	if err != nil {
		t.Fatalf("SearchRead: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %v, want one seeded customer", records)
	}
	if records[0]["name"] != "John Smith" {
		t.Errorf("name = %v", records[0]["name"])
	}
	if records[0]["id"] == nil {
		t.Errorf("projection must always include id")
	}
}

func TestCreateSearchWriteUnlink(t *testing.T) {
	id, err := Create("res.partner", Record{"name": "Temp Customer", "email": "temp@example.com"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := Write("res.partner", []int{id}, Record{"name": "Renamed Customer"}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	records, err := SearchRead("res.partner", []any{[]any{"email", "=", "temp@example.com"}}, nil)
	if err != nil {
		t.Fatalf("SearchRead: %v", err)
	}
	if len(records) != 1 || records[0]["name"] != "Renamed Customer" {
		t.Errorf("records = %v", records)
	}

	if _, err := Unlink("res.partner", []int{id}); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	records, _ = SearchRead("res.partner", []any{[]any{"email", "=", "temp@example.com"}}, nil)
	if len(records) != 0 {
		t.Errorf("records = %v after unlink, want none", records)
	}
}

func TestUnknownModelRejected(t *testing.T) {
	if _, err := Create("crm.lead", Record{"name": "x"}); err == nil {
		t.Error("Create on an unknown model must fail")
	}
	if _, err := SearchRead("crm.lead", nil, nil); err == nil {
		t.Error("SearchRead on an unknown model must fail")
	}
}

func TestDomainFiltering(t *testing.T) {
	records, err := SearchRead("res.partner",
		[]any{[]any{"name", "=", "Acme Trading Ltd"}, []any{"is_company", "=", true}}, []string{"name"})
	if err != nil {
		t.Fatalf("SearchRead: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("records = %v, want the company match", records)
	}

	records, _ = SearchRead("res.partner", []any{[]any{"name", "=", "Nobody Here"}}, nil)
	if len(records) != 0 {
		t.Errorf("records = %v, want none", records)
	}
}
