package domain

import "testing"

func TestHasNumber(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"+923001234567", true},
		{"03001234567", true},
		{"", false},
		{"   ", false},
		{"0", false},
		{"0000000000", false},
		{"+0000000000", false},
		{"+0000000001", true},
	}
	for _, tt := range tests {
		r := Recipient{Number: tt.number}
		if got := r.HasNumber(); got != tt.want {
			t.Errorf("HasNumber(%q) = %v, want %v", tt.number, got, tt.want)
		}
	}
}

func TestRenderTemplate(t *testing.T) {
	balance := 1500

	tests := []struct {
		name    string
		tmpl    string
		recName string
		balance *int
		want    string
	}{
		{
			name:    "name and balance",
			tmpl:    "Dear {name}, your balance is {balance}.",
			recName: "Alice",
			balance: &balance,
			want:    "Dear Alice, your balance is 1500.",
		},
		{
			name:    "balance placeholder survives nil balance",
			tmpl:    "Dear {name}, your balance is {balance}.",
			recName: "Alice",
			want:    "Dear Alice, your balance is {balance}.",
		},
		{
			name:    "no placeholders",
			tmpl:    "Hello there.",
			recName: "Alice",
			want:    "Hello there.",
		},
		{
			name:    "repeated placeholders",
			tmpl:    "{name} {name}",
			recName: "Bob",
			want:    "Bob Bob",
		},
		{
			name: "empty template",
			tmpl: "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RenderTemplate(tt.tmpl, tt.recName, tt.balance); got != tt.want {
				t.Errorf("RenderTemplate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewContactListDedup(t *testing.T) {
	list := NewContactList("clients", []Contact{
		{Name: "Alice", Number: "+923001111111"},
		{Name: "", Number: "+923002222222"},
		{Name: "Alice Again", Number: "+923001111111"},
		{Name: "Carol", Number: "+923003333333"},
	})

	if list.ContactCount != 3 {
		t.Fatalf("ContactCount = %d, want 3", list.ContactCount)
	}
	if len(list.Contacts) != 3 {
		t.Fatalf("len(Contacts) = %d, want 3", len(list.Contacts))
	}
	// First occurrence wins on duplicates.
	if list.Contacts[0].Name != "Alice" {
		t.Errorf("Contacts[0].Name = %q, want %q", list.Contacts[0].Name, "Alice")
	}
	// Missing names get positional placeholders.
	if list.Contacts[1].Name != "Contact_2" {
		t.Errorf("Contacts[1].Name = %q, want %q", list.Contacts[1].Name, "Contact_2")
	}
	for i, c := range list.Contacts {
		if c.ListID != list.ID {
			t.Errorf("Contacts[%d].ListID = %v, want %v", i, c.ListID, list.ID)
		}
	}
}

func TestLedger(t *testing.T) {
	l := NewLedger()
	if l.Contains("+923001234567") {
		t.Fatal("empty ledger should not contain anything")
	}
	l.Mark("+923001234567")
	l.Mark("+923001234567")
	if !l.Contains("+923001234567") {
		t.Fatal("marked number missing from ledger")
	}
	if l.Len() != 1 {
		t.Errorf("Len() = %d, want 1", l.Len())
	}
}
