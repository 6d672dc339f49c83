package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"chatblast/internal/adapters/driver/memory"
	"chatblast/internal/app"
	"chatblast/internal/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// fakeContacts is an in-memory ContactRepository for handler tests.
type fakeContacts struct {
	lists map[uuid.UUID]domain.ContactList
	admin string
	err   error
}

func newFakeContacts() *fakeContacts {
	return &fakeContacts{lists: make(map[uuid.UUID]domain.ContactList)}
}

func (f *fakeContacts) SaveList(_ context.Context, list domain.ContactList) error {
	if f.err != nil {
		return f.err
	}
	f.lists[list.ID] = list
	return nil
}

func (f *fakeContacts) Lists(_ context.Context) ([]domain.ContactList, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.ContactList, 0, len(f.lists))
	for _, l := range f.lists {
		l.Contacts = nil
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeContacts) GetList(_ context.Context, id uuid.UUID) (*domain.ContactList, error) {
	if f.err != nil {
		return nil, f.err
	}
	l, ok := f.lists[id]
	if !ok {
		return nil, domain.ErrContactListNotFound
	}
	return &l, nil
}

func (f *fakeContacts) DeleteList(_ context.Context, id uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.lists[id]; !ok {
		return domain.ErrContactListNotFound
	}
	delete(f.lists, id)
	return nil
}

func (f *fakeContacts) AdminNumber(_ context.Context) (string, error) {
	return f.admin, f.err
}

func (f *fakeContacts) SetAdminNumber(_ context.Context, number string) error {
	if f.err != nil {
		return f.err
	}
	f.admin = number
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *app.SendService, *fakeContacts) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := app.NewSendService(memory.New(), nopResolver{}, log)
	contacts := newFakeContacts()

	fApp := fiber.New()
	h := NewHandler(svc, contacts, log)
	h.Register(fApp.Group("/api"))
	return fApp, svc, contacts
}

type nopResolver struct{}

func (nopResolver) ResolveMedia(names []string) ([]string, error)     { return nil, nil }
func (nopResolver) ResolveDocuments(names []string) ([]string, error) { return nil, nil }

func jsonReq(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestSendAttachmentsValidation(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	tests := []struct {
		name string
		body any
		raw  string
		want int
	}{
		{
			name: "malformed body",
			raw:  "{not json",
			want: http.StatusBadRequest,
		},
		{
			name: "missing admin number",
			body: map[string]any{
				"recipients": []map[string]string{{"name": "A", "number": "+923001234567"}},
			},
			want: http.StatusBadRequest,
		},
		{
			name: "empty recipients",
			body: map[string]any{"admin_no": "+920000000001"},
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.raw != "" {
				req = httptest.NewRequest(http.MethodPost, "/api/send-attachments", strings.NewReader(tt.raw))
				req.Header.Set("Content-Type", "application/json")
			} else {
				req = jsonReq(http.MethodPost, "/api/send-attachments", tt.body)
			}
			resp, err := fApp.Test(req)
			if err != nil {
				t.Fatalf("Test: %v", err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestSendAttachmentsConflictWhenRunActive(t *testing.T) {
	fApp, svc, _ := newTestApp(t)

	run, err := svc.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer run.Release()

	body := map[string]any{
		"recipients": []map[string]string{{"name": "A", "number": "+923001234567"}},
		"admin_no":   "+920000000001",
		"message":    "hi",
	}
	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/send-attachments", body))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d, want 409", resp.StatusCode)
	}
}

func TestSendBalancesValidation(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	body := map[string]any{
		"recipients": []map[string]string{{"name": "A", "number": "+923001234567"}},
	}
	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/send-balances", body))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStop(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/stop", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestPreviewMessage(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	body := map[string]any{
		"recipients": []map[string]any{
			{"name": "Alice", "number": "+923001234567", "balance": 800},
			{"name": "Bob", "number": "+923007654321"},
		},
		"message": "Dear {name}, your balance is {balance}.",
	}
	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/preview-message", body))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	got := decodeBody(t, resp)
	previews, ok := got["previews"].([]any)
	if !ok || len(previews) != 2 {
		t.Fatalf("previews = %v, want 2 entries", got["previews"])
	}
	first := previews[0].(map[string]any)
	if first["preview"] != "Dear Alice, your balance is 800." {
		t.Errorf("preview = %q", first["preview"])
	}
	// No balance given: the placeholder stays put.
	second := previews[1].(map[string]any)
	if second["preview"] != "Dear Bob, your balance is {balance}." {
		t.Errorf("preview = %q", second["preview"])
	}
}

func TestAdminNumberRoundTrip(t *testing.T) {
	fApp, _, contacts := newTestApp(t)

	resp, err := fApp.Test(jsonReq(http.MethodGet, "/api/admin-number", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if got := decodeBody(t, resp)["admin_number"]; got != "" {
		t.Errorf("initial admin_number = %q, want empty", got)
	}

	body := map[string]string{"admin_number": "+920000000001"}
	resp, err = fApp.Test(jsonReq(http.MethodPost, "/api/admin-number", body))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("save status = %d, want 200", resp.StatusCode)
	}
	if contacts.admin != "+920000000001" {
		t.Errorf("stored admin = %q", contacts.admin)
	}
}

func TestSaveAdminNumberRequiresField(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/admin-number", map[string]string{}))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestContactListLifecycle(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	body := map[string]any{
		"name": "clients",
		"contacts": []map[string]string{
			{"name": "Alice", "number": "+923001111111"},
			{"name": "Dupe", "number": "+923001111111"},
			{"name": "Bob", "number": "+923002222222"},
		},
	}
	resp, err := fApp.Test(jsonReq(http.MethodPost, "/api/contacts/lists", body))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status = %d, want 201", resp.StatusCode)
	}
	created := decodeBody(t, resp)
	if created["contact_count"].(float64) != 2 {
		t.Errorf("contact_count = %v, want 2", created["contact_count"])
	}
	if created["duplicates"].(float64) != 1 {
		t.Errorf("duplicates = %v, want 1", created["duplicates"])
	}
	id := created["id"].(string)

	resp, err = fApp.Test(jsonReq(http.MethodGet, "/api/contacts/lists/"+id, nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", resp.StatusCode)
	}
	list := decodeBody(t, resp)
	if list["name"] != "clients" {
		t.Errorf("name = %v", list["name"])
	}
	if got := list["contacts"].([]any); len(got) != 2 {
		t.Errorf("contacts = %v, want 2 entries", got)
	}

	resp, err = fApp.Test(jsonReq(http.MethodDelete, "/api/contacts/lists/"+id, nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", resp.StatusCode)
	}

	resp, err = fApp.Test(jsonReq(http.MethodGet, "/api/contacts/lists/"+id, nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete = %d, want 404", resp.StatusCode)
	}
}

func TestContactListBadID(t *testing.T) {
	fApp, _, _ := newTestApp(t)

	resp, err := fApp.Test(jsonReq(http.MethodGet, "/api/contacts/lists/not-a-uuid", nil))
	if err != nil {
		t.Fatalf("Test: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
