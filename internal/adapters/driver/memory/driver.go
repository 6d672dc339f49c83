// Package memory provides a scripted in-process ChannelDriver. It backs the
// orchestrator tests and doubles as a dry-run driver for local development
// (DRIVER=memory), where every send succeeds without touching a real channel.
package memory

import (
	"context"
	"sync"

	"chatblast/internal/ports"
)

// Driver implements ports.ChannelDriver entirely in memory. The zero value
// accepts every number and confirms every send; tests script failures through
// the exported fields before the run starts.
type Driver struct {
	mu sync.Mutex

	// InvalidNumbers are rejected by OpenConversation.
	InvalidNumbers map[string]bool
	// OpenErr, when set, makes every OpenConversation fail (driver down).
	OpenErr error
	// TextFailures maps conversation numbers whose SendText returns false.
	TextFailures map[string]bool
	// FileFailures maps conversation numbers whose SendFiles returns false.
	FileFailures map[string]bool
	// TextErr / FilesErr, when set, make the respective call return an error.
	TextErr  error
	FilesErr error

	current string

	// Recorded interactions, in call order.
	Opened []string
	Texts  []SentText
	Files  []SentFiles
	Resets int
}

// SentText is one recorded SendText call.
type SentText struct {
	Number string
	Text   string
}

// SentFiles is one recorded SendFiles call.
type SentFiles struct {
	Number string
	Paths  []string
}

// New returns a driver that accepts everything.
func New() *Driver {
	return &Driver{}
}

func (d *Driver) OpenConversation(_ context.Context, number string) (ports.OpenStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return ports.OpenReady, d.OpenErr
	}
	d.Opened = append(d.Opened, number)
	if d.InvalidNumbers[number] {
		return ports.OpenInvalidNumber, nil
	}
	d.current = number
	return ports.OpenReady, nil
}

func (d *Driver) SendText(_ context.Context, text string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.TextErr != nil {
		return false, d.TextErr
	}
	d.Texts = append(d.Texts, SentText{Number: d.current, Text: text})
	return !d.TextFailures[d.current], nil
}

func (d *Driver) SendFiles(_ context.Context, paths []string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.FilesErr != nil {
		return false, d.FilesErr
	}
	d.Files = append(d.Files, SentFiles{Number: d.current, Paths: paths})
	return !d.FileFailures[d.current], nil
}

func (d *Driver) Reset(_ context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = ""
	d.Resets++
}

// OpenedFor returns how many times the given number was opened.
func (d *Driver) OpenedFor(number string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, opened := range d.Opened {
		if opened == number {
			n++
		}
	}
	return n
}
