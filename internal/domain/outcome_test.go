package domain

import "testing"

func boolPtrOutcome(kind ContentKind, ok bool) SendOutcome {
	return SendOutcome{Kind: kind, Attempted: true, Succeeded: ok}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name        string
		outcomes    []SendOutcome
		wantStatus  CompositeStatus
		wantSummary string
	}{
		{
			name:        "nothing attempted",
			outcomes:    []SendOutcome{{Kind: KindMedia}, {Kind: KindPDF}, {Kind: KindMessage}},
			wantStatus:  StatusSkipped,
			wantSummary: "nothing to send",
		},
		{
			name:        "single success",
			outcomes:    []SendOutcome{boolPtrOutcome(KindMessage, true)},
			wantStatus:  StatusSuccess,
			wantSummary: "all sends completed successfully",
		},
		{
			name:        "single failure",
			outcomes:    []SendOutcome{boolPtrOutcome(KindMessage, false)},
			wantStatus:  StatusError,
			wantSummary: "all sends failed",
		},
		{
			name: "all kinds succeed",
			outcomes: []SendOutcome{
				boolPtrOutcome(KindMedia, true),
				boolPtrOutcome(KindPDF, true),
				boolPtrOutcome(KindMessage, true),
			},
			wantStatus:  StatusSuccess,
			wantSummary: "all sends completed successfully",
		},
		{
			name: "mixed results are partial",
			outcomes: []SendOutcome{
				boolPtrOutcome(KindMedia, false),
				boolPtrOutcome(KindMessage, true),
			},
			wantStatus:  StatusPartial,
			wantSummary: "message sent, but media failed",
		},
		{
			name: "partial lists every kind",
			outcomes: []SendOutcome{
				boolPtrOutcome(KindMedia, true),
				boolPtrOutcome(KindPDF, true),
				boolPtrOutcome(KindMessage, false),
			},
			wantStatus:  StatusPartial,
			wantSummary: "media and pdf sent, but message failed",
		},
		{
			name: "unattempted kinds do not count",
			outcomes: []SendOutcome{
				{Kind: KindMedia},
				boolPtrOutcome(KindMessage, true),
			},
			wantStatus:  StatusSuccess,
			wantSummary: "all sends completed successfully",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, summary := Aggregate(tt.outcomes)
			if status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status, tt.wantStatus)
			}
			if summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", summary, tt.wantSummary)
			}
		})
	}
}

func TestSkipReasonStatus(t *testing.T) {
	tests := []struct {
		reason SkipReason
		want   string
	}{
		{SkipNoNumber, "skipped (no number)"},
		{SkipInvalidNumber, "skipped (invalid number)"},
		{SkipInsufficientBalance, "skipped (insufficient balance)"},
		{SkipDuplicate, "skipped (duplicate)"},
	}
	for _, tt := range tests {
		if got := tt.reason.Status(); got != tt.want {
			t.Errorf("Status(%q) = %q, want %q", tt.reason, got, tt.want)
		}
	}
}
