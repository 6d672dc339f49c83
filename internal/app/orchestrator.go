package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"chatblast/internal/domain"
	"chatblast/internal/pacing"
	"chatblast/internal/ports"
)

const (
	defaultMinBatchSize     = 15
	defaultMaxBatchSize     = 35
	defaultMinBatchDelaySec = 60
	defaultMaxBatchDelaySec = 120
	defaultBalanceFloor     = 500
)

// SendService owns the single exclusive channel session and runs send
// orchestrations over it. At most one run is active at a time; Begin rejects
// a second run while one is in flight.
type SendService struct {
	driver  ports.ChannelDriver
	content ports.ContentResolver
	log     *slog.Logger

	pacing pacing.Config
	rng    *rand.Rand
	clock  func() time.Time

	mu     sync.Mutex
	active bool
	stop   atomic.Bool
}

// NewSendService wires the service with its dependencies.
func NewSendService(driver ports.ChannelDriver, content ports.ContentResolver, log *slog.Logger) *SendService {
	return &SendService{
		driver:  driver,
		content: content,
		log:     log,
		pacing:  pacing.DefaultConfig(),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		clock:   time.Now,
	}
}

// AttachmentRunRequest is the input for a batched media/document/text run.
type AttachmentRunRequest struct {
	Recipients    []domain.Recipient
	MediaFiles    []string // stored filenames, resolved before the run starts
	DocumentFiles []string
	Message       string // run-level template; overrides per-recipient templates
	AdminNumber   string

	MinBatchSize     int
	MaxBatchSize     int
	MinBatchDelaySec int
	MaxBatchDelaySec int
}

func (req *AttachmentRunRequest) validate() error {
	if strings.TrimSpace(req.AdminNumber) == "" {
		return domain.ErrAdminNumberRequired
	}
	if len(req.Recipients) == 0 {
		return domain.ErrNoRecipients
	}
	return nil
}

func (req *AttachmentRunRequest) applyDefaults() {
	if req.MinBatchSize <= 0 {
		req.MinBatchSize = defaultMinBatchSize
	}
	if req.MaxBatchSize <= 0 {
		req.MaxBatchSize = defaultMaxBatchSize
	}
	if req.MinBatchDelaySec <= 0 {
		req.MinBatchDelaySec = defaultMinBatchDelaySec
	}
	if req.MaxBatchDelaySec <= 0 {
		req.MaxBatchDelaySec = defaultMaxBatchDelaySec
	}
}

// BalanceRunRequest is the input for an unbatched balance-report run.
type BalanceRunRequest struct {
	Recipients   []domain.Recipient
	AdminNumber  string
	BalanceFloor int
}

func (req *BalanceRunRequest) validate() error {
	if strings.TrimSpace(req.AdminNumber) == "" {
		return domain.ErrAdminNumberRequired
	}
	if len(req.Recipients) == 0 {
		return domain.ErrNoRecipients
	}
	return nil
}

// Begin reserves the single active-run slot. The returned Run must be used
// for exactly one orchestration; a concurrent Begin fails with ErrRunActive.
func (s *SendService) Begin() (*Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil, domain.ErrRunActive
	}
	s.active = true
	s.stop.Store(false)
	return &Run{svc: s}, nil
}

// Stop raises the cooperative stop flag. The active run honors it at the
// start of the next recipient iteration; in-flight driver calls complete.
func (s *SendService) Stop() {
	s.stop.Store(true)
	s.log.Info("stop signal raised")
}

// Running reports whether a run currently holds the slot.
func (s *SendService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Run is a reserved run slot.
type Run struct {
	svc  *SendService
	once sync.Once
}

// Release frees the slot. Called automatically when an orchestration
// finishes; safe to call again.
func (r *Run) Release() {
	r.once.Do(func() {
		r.svc.mu.Lock()
		r.svc.active = false
		r.svc.mu.Unlock()
	})
}

// Attachments executes a batched media/document/text run.
func (r *Run) Attachments(ctx context.Context, req AttachmentRunRequest, sink ports.EventSink) error {
	defer r.Release()
	return r.svc.runAttachments(ctx, req, sink)
}

// Balances executes a balance-report run.
func (r *Run) Balances(ctx context.Context, req BalanceRunRequest, sink ports.EventSink) error {
	defer r.Release()
	return r.svc.runBalances(ctx, req, sink)
}

func (s *SendService) runAttachments(ctx context.Context, req AttachmentRunRequest, sink ports.EventSink) error {
	if err := req.validate(); err != nil {
		return err
	}
	req.applyDefaults()

	media, err := s.content.ResolveMedia(req.MediaFiles)
	if err != nil {
		return fmt.Errorf("resolve media: %w", err)
	}
	docs, err := s.content.ResolveDocuments(req.DocumentFiles)
	if err != nil {
		return fmt.Errorf("resolve documents: %w", err)
	}
	manifest := domain.ContentManifest{MediaPaths: media, DocumentPaths: docs}

	pc := pacing.New(s.pacing, s.rng)
	state := &domain.RunState{}
	ledger := domain.NewLedger()
	batches := PlanBatches(req.Recipients, req.MinBatchSize, req.MaxBatchSize, s.rng)
	total := len(batches)
	batchDelay := pacing.Seconds(req.MinBatchDelaySec, req.MaxBatchDelaySec)

	s.log.Info("attachment run started",
		"recipients", len(req.Recipients),
		"batches", total,
		"media", len(media),
		"documents", len(docs),
	)

	for i, batch := range batches {
		var batchInvalid []domain.Defaulter

		for _, rec := range batch.Recipients {
			if s.stop.Load() {
				return s.stopRun(ctx, state, req.AdminNumber, sink)
			}

			tmpl := rec.MessageTemplate
			if req.Message != "" {
				tmpl = req.Message
			}
			if err := s.processAttachment(ctx, pc, rec, manifest, tmpl, ledger, state, &batchInvalid, sink); err != nil {
				s.driver.Reset(ctx)
				return err
			}
			if err := pc.InterMessage(ctx); err != nil {
				s.driver.Reset(ctx)
				return err
			}
			if err := pc.RecipientDone(ctx); err != nil {
				s.driver.Reset(ctx)
				return err
			}
		}

		label := fmt.Sprintf("%d/%d", i+1, total)
		if i < total-1 {
			ev := domain.NewEvent(domain.StatusBatchComplete,
				fmt.Sprintf("completed batch %s, waiting before next batch", label), s.clock())
			if err := s.emit(ctx, sink, ev); err != nil {
				return err
			}
			s.reportToAdmin(ctx, nil, batchInvalid, label, req.AdminNumber)
			s.driver.Reset(ctx)
			if err := pc.BatchDelay(ctx, batchDelay); err != nil {
				return err
			}
		} else {
			// End-of-run report: accumulated no-number list plus the final
			// batch's invalids (earlier batches were already reported).
			s.reportToAdmin(ctx, state.NoNumber, batchInvalid, label, req.AdminNumber)
			s.driver.Reset(ctx)
		}
	}

	s.log.Info("attachment run finished", "sent", ledger.Len(), "invalid", len(state.InvalidNumbers))
	return s.emit(ctx, sink, domain.NewEvent(domain.StatusRunComplete,
		fmt.Sprintf("processed %d recipients in %d batches", len(req.Recipients), total), s.clock()))
}

func (s *SendService) runBalances(ctx context.Context, req BalanceRunRequest, sink ports.EventSink) error {
	if err := req.validate(); err != nil {
		return err
	}
	if req.BalanceFloor <= 0 {
		req.BalanceFloor = defaultBalanceFloor
	}

	pc := pacing.New(s.pacing, s.rng)
	state := &domain.RunState{}
	ledger := domain.NewLedger()

	s.log.Info("balance run started", "recipients", len(req.Recipients), "floor", req.BalanceFloor)

	for _, rec := range req.Recipients {
		if s.stop.Load() {
			return s.stopRun(ctx, state, req.AdminNumber, sink)
		}
		if err := s.processBalance(ctx, pc, rec, req.BalanceFloor, ledger, state, sink); err != nil {
			s.driver.Reset(ctx)
			return err
		}
		if err := pc.InterMessage(ctx); err != nil {
			s.driver.Reset(ctx)
			return err
		}
		if err := pc.RecipientDone(ctx); err != nil {
			s.driver.Reset(ctx)
			return err
		}
	}

	s.reportToAdmin(ctx, state.NoNumber, state.InvalidNumbers, "", req.AdminNumber)
	s.driver.Reset(ctx)

	s.log.Info("balance run finished", "sent", ledger.Len(),
		"no_number", len(state.NoNumber), "invalid", len(state.InvalidNumbers))
	return s.emit(ctx, sink, domain.NewEvent(domain.StatusRunComplete,
		fmt.Sprintf("processed %d recipients", len(req.Recipients)), s.clock()))
}

// stopRun is the cooperative-cancellation teardown: one terminal stopped
// marker, then the admin report with everything accumulated so far.
func (s *SendService) stopRun(ctx context.Context, state *domain.RunState, adminNumber string, sink ports.EventSink) error {
	ev := domain.NewEvent(string(domain.StatusStopped), "run stopped by operator", s.clock())
	if err := s.emit(ctx, sink, ev); err != nil {
		return err
	}
	s.reportToAdmin(ctx, state.NoNumber, state.InvalidNumbers, "", adminNumber)
	s.driver.Reset(ctx)
	s.log.Info("run stopped by operator")
	return nil
}

func (s *SendService) processAttachment(
	ctx context.Context,
	pc *pacing.Controller,
	rec domain.Recipient,
	manifest domain.ContentManifest,
	textTemplate string,
	ledger *domain.Ledger,
	state *domain.RunState,
	batchInvalid *[]domain.Defaulter,
	sink ports.EventSink,
) error {
	if ledger.Contains(rec.Number) {
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipDuplicate.Status(), "already processed in this run"))
	}
	if !rec.HasNumber() {
		state.NoNumber = append(state.NoNumber, defaulterFor(rec))
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipNoNumber.Status(), "no number entered"))
	}

	st, err := s.driver.OpenConversation(ctx, rec.Number)
	if err != nil {
		return fmt.Errorf("%w: open conversation for %s: %v", domain.ErrDriverUnavailable, rec.Number, err)
	}
	if st == ports.OpenInvalidNumber {
		d := defaulterFor(rec)
		state.InvalidNumbers = append(state.InvalidNumbers, d)
		*batchInvalid = append(*batchInvalid, d)
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipInvalidNumber.Status(), "number rejected by channel"))
	}
	if err := pc.InterAction(ctx); err != nil {
		return err
	}

	text := ""
	if textTemplate != "" {
		text = domain.RenderTemplate(textTemplate, rec.Name, rec.Balance)
	}

	media, pdf, msg, sendErr := s.attemptSends(ctx, pc, manifest, text)
	if sendErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Recipient-local driver failure: classify and move on.
		s.log.Warn("send failed", "number", rec.Number, "err", sendErr)
		ev := s.recipientEvent(rec, string(domain.StatusError), sendErr.Error())
		ev.MediaSent, ev.PDFSent, ev.MessageSent = media, pdf, msg
		return s.emit(ctx, sink, ev)
	}

	status, summary := domain.Aggregate(outcomesFrom(media, pdf, msg))
	if anySucceeded(media, pdf, msg) {
		ledger.Mark(rec.Number)
	}
	ev := s.recipientEvent(rec, string(status), summary)
	ev.MediaSent, ev.PDFSent, ev.MessageSent = media, pdf, msg
	return s.emit(ctx, sink, ev)
}

func (s *SendService) processBalance(
	ctx context.Context,
	pc *pacing.Controller,
	rec domain.Recipient,
	floor int,
	ledger *domain.Ledger,
	state *domain.RunState,
	sink ports.EventSink,
) error {
	if rec.Balance != nil && *rec.Balance < floor {
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipInsufficientBalance.Status(), "balance below floor"))
	}
	if !rec.HasNumber() {
		state.NoNumber = append(state.NoNumber, defaulterFor(rec))
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipNoNumber.Status(), "no number entered"))
	}
	if ledger.Contains(rec.Number) {
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipDuplicate.Status(), "already processed in this run"))
	}

	st, err := s.driver.OpenConversation(ctx, rec.Number)
	if err != nil {
		return fmt.Errorf("%w: open conversation for %s: %v", domain.ErrDriverUnavailable, rec.Number, err)
	}
	if st == ports.OpenInvalidNumber {
		state.InvalidNumbers = append(state.InvalidNumbers, defaulterFor(rec))
		return s.emit(ctx, sink, s.recipientEvent(rec, domain.SkipInvalidNumber.Status(), "number rejected by channel"))
	}
	if err := pc.InterAction(ctx); err != nil {
		return err
	}

	text := domain.RenderTemplate(rec.MessageTemplate, strings.ToUpper(rec.Name), rec.Balance)
	if text == "" {
		return s.emit(ctx, sink, s.recipientEvent(rec, string(domain.StatusSkipped), "nothing to send"))
	}

	ok, sendErr := s.driver.SendText(ctx, text)
	if sendErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.log.Warn("send failed", "number", rec.Number, "err", sendErr)
		return s.emit(ctx, sink, s.recipientEvent(rec, string(domain.StatusError), sendErr.Error()))
	}

	status, summary := domain.Aggregate([]domain.SendOutcome{
		{Kind: domain.KindMessage, Attempted: true, Succeeded: ok},
	})
	if ok {
		ledger.Mark(rec.Number)
	}
	ev := s.recipientEvent(rec, string(status), summary)
	ev.MessageSent = &ok
	return s.emit(ctx, sink, ev)
}

// attemptSends walks the fixed content order: media, then documents, then
// text. A nil flag means the kind was never attempted. A non-nil error is a
// driver failure on the step it happened.
func (s *SendService) attemptSends(
	ctx context.Context,
	pc *pacing.Controller,
	manifest domain.ContentManifest,
	text string,
) (media, pdf, msg *bool, err error) {
	if len(manifest.MediaPaths) > 0 {
		ok, sendErr := s.driver.SendFiles(ctx, manifest.MediaPaths)
		if sendErr != nil {
			return media, pdf, msg, fmt.Errorf("send media: %w", sendErr)
		}
		media = &ok
		if err := pc.InterAction(ctx); err != nil {
			return media, pdf, msg, err
		}
	}
	if len(manifest.DocumentPaths) > 0 {
		ok, sendErr := s.driver.SendFiles(ctx, manifest.DocumentPaths)
		if sendErr != nil {
			return media, pdf, msg, fmt.Errorf("send documents: %w", sendErr)
		}
		pdf = &ok
		if err := pc.InterAction(ctx); err != nil {
			return media, pdf, msg, err
		}
	}
	if text != "" {
		ok, sendErr := s.driver.SendText(ctx, text)
		if sendErr != nil {
			return media, pdf, msg, fmt.Errorf("send message: %w", sendErr)
		}
		msg = &ok
	}
	return media, pdf, msg, nil
}

func (s *SendService) emit(ctx context.Context, sink ports.EventSink, ev domain.ProgressEvent) error {
	if err := sink.Emit(ctx, ev); err != nil {
		return fmt.Errorf("emit progress event: %w", err)
	}
	return nil
}

func (s *SendService) recipientEvent(rec domain.Recipient, status, message string) domain.ProgressEvent {
	ev := domain.NewEvent(status, message, s.clock())
	ev.Name = rec.Name
	ev.Number = rec.Number
	ev.Balance = rec.Balance
	return ev
}

func defaulterFor(rec domain.Recipient) domain.Defaulter {
	return domain.Defaulter{Name: rec.Name, Number: rec.Number, Balance: rec.Balance}
}

func outcomesFrom(media, pdf, msg *bool) []domain.SendOutcome {
	return []domain.SendOutcome{
		{Kind: domain.KindMedia, Attempted: media != nil, Succeeded: media != nil && *media},
		{Kind: domain.KindPDF, Attempted: pdf != nil, Succeeded: pdf != nil && *pdf},
		{Kind: domain.KindMessage, Attempted: msg != nil, Succeeded: msg != nil && *msg},
	}
}

func anySucceeded(flags ...*bool) bool {
	for _, f := range flags {
		if f != nil && *f {
			return true
		}
	}
	return false
}
