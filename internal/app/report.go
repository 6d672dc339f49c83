package app

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"chatblast/internal/domain"
	"chatblast/internal/ports"
)

// composeReport builds the admin summary text. The two lists are independent
// optional sections; when both are empty an all-clear line is produced. An
// optional batch label is appended last.
func composeReport(noNumber, invalid []domain.Defaulter, batchLabel string) string {
	var b strings.Builder

	if len(noNumber) > 0 {
		fmt.Fprintf(&b, "No Number Report (Total: %d):", len(noNumber))
		for i, d := range noNumber {
			fmt.Fprintf(&b, "\n%d. %s: %s", i+1, d.Name, defaulterDetail(d))
		}
	}
	if len(invalid) > 0 {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "Invalid Number Report (Total: %d):", len(invalid))
		for i, d := range invalid {
			fmt.Fprintf(&b, "\n%d. %s: %s", i+1, d.Name, defaulterDetail(d))
		}
	}
	if b.Len() == 0 {
		b.WriteString("All processed and no defaulters were found!")
	}
	if batchLabel != "" {
		b.WriteString("\nBatch " + batchLabel)
	}
	return b.String()
}

// defaulterDetail prefers the balance when the entry carries one, otherwise
// the offending number.
func defaulterDetail(d domain.Defaulter) string {
	if d.Balance != nil {
		return strconv.Itoa(*d.Balance)
	}
	return d.Number
}

// reportToAdmin delivers the summary through the same channel driver the run
// uses. Delivery failures are logged, never surfaced as run failures.
func (s *SendService) reportToAdmin(ctx context.Context, noNumber, invalid []domain.Defaulter, batchLabel, adminNumber string) {
	text := composeReport(noNumber, invalid, batchLabel)

	st, err := s.driver.OpenConversation(ctx, adminNumber)
	if err != nil {
		s.log.Warn("admin report delivery failed", "admin", adminNumber, "err", err)
		return
	}
	if st != ports.OpenReady {
		s.log.Warn("admin report delivery failed", "admin", adminNumber, "reason", "admin number rejected")
		return
	}

	ok, err := s.driver.SendText(ctx, text)
	if err != nil || !ok {
		s.log.Warn("admin report delivery failed", "admin", adminNumber, "err", err)
		return
	}
	s.log.Info("admin report delivered", "batch", batchLabel,
		"no_number", len(noNumber), "invalid", len(invalid))
}
