package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

// run-client starts a send run against a local sender-api and follows the
// progress stream on stdout. Handy for smoke-testing the full pipeline with
// the mock agent: a run request file in, one tallied summary out.

type runRequest struct {
	Recipients    []recipient `json:"recipients"`
	MediaFiles    []string    `json:"media_files,omitempty"`
	PDFFiles      []string    `json:"pdf_files,omitempty"`
	Message       string      `json:"message,omitempty"`
	AdminNumber   string      `json:"admin_no"`
	MinBatchSize  int         `json:"min_batch_size,omitempty"`
	MaxBatchSize  int         `json:"max_batch_size,omitempty"`
	MinBatchDelay int         `json:"min_batch_delay,omitempty"`
	MaxBatchDelay int         `json:"max_batch_delay,omitempty"`
}

type recipient struct {
	Name            string `json:"name"`
	Number          string `json:"number"`
	MessageTemplate string `json:"messageTemplate,omitempty"`
}

type progressLine struct {
	Name    string `json:"name"`
	Number  string `json:"number"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

func main() {
	url := flag.String("url", "http://localhost:5690/api/send-attachments", "run endpoint")
	file := flag.String("f", "", "JSON run request file (overrides -n)")
	count := flag.Int("n", 5, "number of synthetic recipients")
	admin := flag.String("admin", "+920000000001", "admin number")
	message := flag.String("m", "Hello {name}, this is a test broadcast.", "message template")
	flag.Parse()

	req, err := buildRequest(*file, *count, *admin, *message)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build request: %v\n", err)
		os.Exit(1)
	}

	body, err := json.Marshal(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal request: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("🚀 Starting run: %d recipients\n", len(req.Recipients))
	fmt.Printf("Target: %s\n", *url)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

	start := time.Now()

	resp, err := http.Post(*url, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "server returned %d\n", resp.StatusCode)
		os.Exit(1)
	}

	tally := make(map[string]int)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		var ev progressLine
		if err := json.Unmarshal(line, &ev); err != nil {
			fmt.Printf("?? %s\n", line)
			continue
		}
		tally[ev.Status]++
		fmt.Printf("%-30s %-15s %s\n", ev.Status, ev.Number, ev.Message)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "stream error: %v\n", err)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("Finished in %s\n", time.Since(start).Round(time.Millisecond))
	for status, n := range tally {
		fmt.Printf("  %-30s %d\n", status, n)
	}
}

func buildRequest(file string, count int, admin, message string) (runRequest, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return runRequest{}, err
		}
		var req runRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return runRequest{}, err
		}
		return req, nil
	}

	req := runRequest{
		AdminNumber: admin,
		Message:     message,
	}
	for i := 0; i < count; i++ {
		req.Recipients = append(req.Recipients, recipient{
			Name:   fmt.Sprintf("Contact_%d", i+1),
			Number: fmt.Sprintf("+92300%07d", i+1),
		})
	}
	return req, nil
}
