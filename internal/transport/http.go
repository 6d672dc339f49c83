package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"chatblast/internal/app"
	"chatblast/internal/domain"
	"chatblast/internal/ports"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

// Handler holds all HTTP handlers for the sender service.
type Handler struct {
	svc      *app.SendService
	contacts ports.ContactRepository
	log      *slog.Logger
	fanout   []ports.EventSink // best-effort extra consumers (e.g. queue)
}

// NewHandler wires up a Handler with its dependencies.
func NewHandler(svc *app.SendService, contacts ports.ContactRepository, log *slog.Logger, fanout ...ports.EventSink) *Handler {
	return &Handler{svc: svc, contacts: contacts, log: log, fanout: fanout}
}

// Register mounts all routes onto the given Fiber router.
func (h *Handler) Register(router fiber.Router) {
	router.Post("/send-attachments", h.SendAttachments)
	router.Post("/send-balances", h.SendBalances)
	router.Post("/preview-message", h.PreviewMessage)
	router.Post("/stop", h.Stop)

	router.Get("/admin-number", h.GetAdminNumber)
	router.Post("/admin-number", h.SaveAdminNumber)

	router.Get("/contacts/lists", h.ListContactLists)
	router.Post("/contacts/lists", h.SaveContactList)
	router.Get("/contacts/lists/:id", h.GetContactList)
	router.Delete("/contacts/lists/:id", h.DeleteContactList)
}

type recipientPayload struct {
	Name            string `json:"name"`
	Number          string `json:"number"`
	MessageTemplate string `json:"messageTemplate"`
	Balance         *int   `json:"balance"`
}

func (p recipientPayload) toDomain() domain.Recipient {
	return domain.Recipient{
		Name:            p.Name,
		Number:          p.Number,
		MessageTemplate: p.MessageTemplate,
		Balance:         p.Balance,
	}
}

func toDomainRecipients(payloads []recipientPayload) []domain.Recipient {
	out := make([]domain.Recipient, 0, len(payloads))
	for _, p := range payloads {
		out = append(out, p.toDomain())
	}
	return out
}

// ── Run API ───────────────────────────────────────────────────────────────────

type sendAttachmentsRequest struct {
	Recipients    []recipientPayload `json:"recipients"`
	MediaFiles    []string           `json:"media_files"`
	PDFFiles      []string           `json:"pdf_files"`
	Message       string             `json:"message"`
	AdminNumber   string             `json:"admin_no"`
	MinBatchSize  int                `json:"min_batch_size"`
	MaxBatchSize  int                `json:"max_batch_size"`
	MinBatchDelay int                `json:"min_batch_delay"`
	MaxBatchDelay int                `json:"max_batch_delay"`
}

// SendAttachments starts a batched media/document/text run and streams one
// progress event per line until the run ends.
//
// POST /api/send-attachments
func (h *Handler) SendAttachments(c *fiber.Ctx) error {
	var req sendAttachmentsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.AdminNumber) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "admin number is required"})
	}
	if len(req.Recipients) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "recipients are required"})
	}

	run, err := h.svc.Begin()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	runReq := app.AttachmentRunRequest{
		Recipients:       toDomainRecipients(req.Recipients),
		MediaFiles:       req.MediaFiles,
		DocumentFiles:    req.PDFFiles,
		Message:          req.Message,
		AdminNumber:      req.AdminNumber,
		MinBatchSize:     req.MinBatchSize,
		MaxBatchSize:     req.MaxBatchSize,
		MinBatchDelaySec: req.MinBatchDelay,
		MaxBatchDelaySec: req.MaxBatchDelay,
	}

	h.stream(c, func(ctx context.Context, sink ports.EventSink) error {
		return run.Attachments(ctx, runReq, sink)
	})
	return nil
}

type sendBalancesRequest struct {
	Recipients   []recipientPayload `json:"recipients"`
	AdminNumber  string             `json:"admin_no"`
	BalanceFloor int                `json:"balance_floor"`
}

// SendBalances starts a balance-report run and streams progress events.
//
// POST /api/send-balances
func (h *Handler) SendBalances(c *fiber.Ctx) error {
	var req sendBalancesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if strings.TrimSpace(req.AdminNumber) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "admin number is required"})
	}
	if len(req.Recipients) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "recipients are required"})
	}

	run, err := h.svc.Begin()
	if err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	runReq := app.BalanceRunRequest{
		Recipients:   toDomainRecipients(req.Recipients),
		AdminNumber:  req.AdminNumber,
		BalanceFloor: req.BalanceFloor,
	}

	h.stream(c, func(ctx context.Context, sink ports.EventSink) error {
		return run.Balances(ctx, runReq, sink)
	})
	return nil
}

// stream executes the run inside a chunked NDJSON response body. The run is
// detached from the request context on purpose: cancellation goes through the
// stop endpoint, and an unread stream surfaces as a sink write error.
func (h *Handler) stream(c *fiber.Ctx, runFn func(ctx context.Context, sink ports.EventSink) error) {
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	c.Set(fiber.HeaderCacheControl, "no-cache")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		sink := &streamSink{w: w, enc: json.NewEncoder(w), fanout: h.fanout, log: h.log}

		if err := runFn(context.Background(), sink); err != nil {
			h.log.Error("run failed", "err", err)
			// Terminal failure marker so the stream never just truncates.
			fail := domain.ProgressEvent{Status: domain.StatusRunFailed, Message: err.Error()}
			_ = sink.Emit(context.Background(), fail)
		}
	}))
}

// streamSink writes events as NDJSON lines and fans them out to best-effort
// secondary sinks. A write failure on the primary stream is fatal to the run.
type streamSink struct {
	w      *bufio.Writer
	enc    *json.Encoder
	fanout []ports.EventSink
	log    *slog.Logger
}

func (s *streamSink) Emit(ctx context.Context, ev domain.ProgressEvent) error {
	if err := s.enc.Encode(ev); err != nil {
		return err
	}
	if err := s.w.Flush(); err != nil {
		return err
	}
	for _, sink := range s.fanout {
		if err := sink.Emit(ctx, ev); err != nil {
			s.log.Warn("event fanout failed", "status", ev.Status, "err", err)
		}
	}
	return nil
}

// ── Preview ───────────────────────────────────────────────────────────────────

type previewRequest struct {
	Recipients []recipientPayload `json:"recipients"`
	Message    string             `json:"message"`
}

type previewEntry struct {
	Name    string `json:"name"`
	Number  string `json:"number"`
	Preview string `json:"preview"`
}

// PreviewMessage renders the message template per recipient without sending.
//
// POST /api/preview-message
func (h *Handler) PreviewMessage(c *fiber.Ctx) error {
	var req previewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	previews := make([]previewEntry, 0, len(req.Recipients))
	for _, p := range req.Recipients {
		tmpl := p.MessageTemplate
		if req.Message != "" {
			tmpl = req.Message
		}
		previews = append(previews, previewEntry{
			Name:    p.Name,
			Number:  p.Number,
			Preview: domain.RenderTemplate(tmpl, p.Name, p.Balance),
		})
	}

	return c.JSON(fiber.Map{"previews": previews})
}

// ── Control ───────────────────────────────────────────────────────────────────

// Stop raises the cooperative stop flag for the active run.
//
// POST /api/stop
func (h *Handler) Stop(c *fiber.Ctx) error {
	h.svc.Stop()
	return c.JSON(fiber.Map{"message": "stop signal sent; the running operation will halt at the next recipient"})
}

// ── Admin number ──────────────────────────────────────────────────────────────

type adminNumberPayload struct {
	AdminNumber *string `json:"admin_number"`
}

// GetAdminNumber returns the stored admin number, empty when unset.
//
// GET /api/admin-number
func (h *Handler) GetAdminNumber(c *fiber.Ctx) error {
	number, err := h.contacts.AdminNumber(c.Context())
	if err != nil {
		h.log.Error("get admin number", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"admin_number": number})
}

// SaveAdminNumber stores the admin number.
//
// POST /api/admin-number
func (h *Handler) SaveAdminNumber(c *fiber.Ctx) error {
	var req adminNumberPayload
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.AdminNumber == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "admin_number is required"})
	}

	if err := h.contacts.SetAdminNumber(c.Context(), *req.AdminNumber); err != nil {
		h.log.Error("save admin number", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.JSON(fiber.Map{"message": "admin number saved"})
}

// ── Contact lists ─────────────────────────────────────────────────────────────

type contactPayload struct {
	Name   string `json:"name"`
	Number string `json:"number"`
}

type saveContactListRequest struct {
	Name     string           `json:"name"`
	Contacts []contactPayload `json:"contacts"`
}

// SaveContactList persists a named contact list, dropping duplicate numbers.
//
// POST /api/contacts/lists
func (h *Handler) SaveContactList(c *fiber.Ctx) error {
	var req saveContactListRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.Name == "" || len(req.Contacts) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and contacts are required"})
	}

	contacts := make([]domain.Contact, 0, len(req.Contacts))
	for _, p := range req.Contacts {
		contacts = append(contacts, domain.Contact{Name: p.Name, Number: p.Number})
	}
	list := domain.NewContactList(req.Name, contacts)

	if err := h.contacts.SaveList(c.Context(), list); err != nil {
		h.log.Error("save contact list", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":            list.ID.String(),
		"contact_count": list.ContactCount,
		"duplicates":    len(req.Contacts) - list.ContactCount,
	})
}

// ListContactLists returns all saved lists, newest first, without contacts.
//
// GET /api/contacts/lists
func (h *Handler) ListContactLists(c *fiber.Ctx) error {
	lists, err := h.contacts.Lists(c.Context())
	if err != nil {
		h.log.Error("list contact lists", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	out := make([]fiber.Map, 0, len(lists))
	for _, l := range lists {
		out = append(out, fiber.Map{
			"id":            l.ID.String(),
			"name":          l.Name,
			"contact_count": l.ContactCount,
			"created_at":    l.CreatedAt,
		})
	}
	return c.JSON(out)
}

// GetContactList returns one list with its contacts.
//
// GET /api/contacts/lists/:id
func (h *Handler) GetContactList(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}

	list, err := h.contacts.GetList(c.Context(), id)
	if errors.Is(err, domain.ErrContactListNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "contact list not found"})
	}
	if err != nil {
		h.log.Error("get contact list", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	contacts := make([]contactPayload, 0, len(list.Contacts))
	for _, ct := range list.Contacts {
		contacts = append(contacts, contactPayload{Name: ct.Name, Number: ct.Number})
	}
	return c.JSON(fiber.Map{
		"id":         list.ID.String(),
		"name":       list.Name,
		"contacts":   contacts,
		"created_at": list.CreatedAt,
	})
}

// DeleteContactList removes a saved list.
//
// DELETE /api/contacts/lists/:id
func (h *Handler) DeleteContactList(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "id must be a valid UUID"})
	}

	err = h.contacts.DeleteList(c.Context(), id)
	if errors.Is(err, domain.ErrContactListNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "contact list not found"})
	}
	if err != nil {
		h.log.Error("delete contact list", "err", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
