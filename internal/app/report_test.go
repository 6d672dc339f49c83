package app

import (
	"testing"

	"chatblast/internal/domain"
)

func TestComposeReportBothSections(t *testing.T) {
	balance := 250
	noNumber := []domain.Defaulter{
		{Name: "Alice", Number: ""},
		{Name: "Bob", Number: "", Balance: &balance},
	}
	invalid := []domain.Defaulter{
		{Name: "Carol", Number: "+920000000123"},
	}

	got := composeReport(noNumber, invalid, "")
	want := "No Number Report (Total: 2):\n" +
		"1. Alice: \n" +
		"2. Bob: 250\n" +
		"\n" +
		"Invalid Number Report (Total: 1):\n" +
		"1. Carol: +920000000123"
	if got != want {
		t.Errorf("composeReport() =\n%q\nwant\n%q", got, want)
	}
}

func TestComposeReportSingleSection(t *testing.T) {
	invalid := []domain.Defaulter{{Name: "Carol", Number: "+920000000123"}}

	got := composeReport(nil, invalid, "")
	want := "Invalid Number Report (Total: 1):\n1. Carol: +920000000123"
	if got != want {
		t.Errorf("composeReport() = %q, want %q", got, want)
	}
}

func TestComposeReportAllClear(t *testing.T) {
	got := composeReport(nil, nil, "")
	want := "All processed and no defaulters were found!"
	if got != want {
		t.Errorf("composeReport() = %q, want %q", got, want)
	}
}

func TestComposeReportBatchLabel(t *testing.T) {
	got := composeReport(nil, nil, "2/4")
	want := "All processed and no defaulters were found!\nBatch 2/4"
	if got != want {
		t.Errorf("composeReport() = %q, want %q", got, want)
	}

	invalid := []domain.Defaulter{{Name: "Carol", Number: "+920000000123"}}
	got = composeReport(nil, invalid, "1/4")
	want = "Invalid Number Report (Total: 1):\n1. Carol: +920000000123\nBatch 1/4"
	if got != want {
		t.Errorf("composeReport() = %q, want %q", got, want)
	}
}
