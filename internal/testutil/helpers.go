package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"policymetrics/internal/common"
)

// TestHelper provides common test utilities
type TestHelper struct {
	t *testing.T
}

// NewTestHelper creates a new test helper
func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// TempDir creates a temporary directory removed when the test ends
func (h *TestHelper) TempDir() string {
	return h.t.TempDir()
}

// WriteFile writes content to a file in the given directory
func (h *TestHelper) WriteFile(dir, filename, content string) string {
	path := filepath.Join(dir, filename)

	// Create parent directories if needed
	if err := os.MkdirAll(filepath.Dir(path), common.DirPermissionNormal); err != nil {
		h.t.Fatalf("Failed to create directories: %v", err)
	}

	if err := os.WriteFile(path, []byte(content), common.FilePermissionNormal); err != nil {
		h.t.Fatalf("Failed to write file %s: %v", path, err)
	}

	return path
}

// SampleDataset is a small policy export with the usual defects: misnamed
// duplicate columns, mixed date formats and missing values.
//
// Sales: Jan 2, Feb 2, Mar 1. Cancellations: Mar 1. Starts: Jan 1, Feb 2, Mar 2.
const SampleDataset = `[
  {"policy_number": "P001", "product_name": "Home", "sale_date": "2021-01-04", "start_date": "2021-01-10",
   "cancel_date": null, "premium": 120.0, "ipt_percent": 12, "commission_SERL_percent": 20,
   "sum_insured": 250000, "first_name": "Ada", "last_name": "Lovelace"},
  {"policy_number": "P002", "product_name": "Pet", "sale_dates": "01/20/2021", "start_date": "2021-02-01",
   "cancel_date": "2021-03-15", "premium": 60, "ipt_percent": 12, "commission_SERL_percent": 15,
   "sum_insureed": 5000, "first name": "Alan", "last_name": "Turing"},
  {"policy_number": "P003", "product_name": "Home", "sale_date": "2021-02-03", "start_date": "2021-02-20",
   "premium": "90", "ipt_percent": "12", "commission_SERL_percent": "20",
   "sum_insured": 180000, "first_name": "Grace", "last_name": "Hopper"},
  {"policy_number": "P004", "product_name": "Travel", "sale_date": "2021-02-25", "start_date": "2021-03-01",
   "premium": 45.5, "ipt_percent": 12, "commission_SERL_percent": 25,
   "sum_insured": 3000, "first_name": "Edsger", "last_name": "Dijkstra"},
  {"policy_number": "P005", "product_name": "Pet", "sale_date": 1615161600000, "start_date": "2021-03-10",
   "premium": 70, "ipt_percent": null, "commission_SERL_percent": 15,
   "sum_insured": 4000, "first_name": "Barbara", "last_name": "Liskov"}
]`

// CreateSampleDataset writes SampleDataset to dir/policies.json
func (h *TestHelper) CreateSampleDataset(dir string) string {
	return h.WriteFile(dir, "policies.json", SampleDataset)
}

// CaptureOutput captures stdout and stderr during function execution
func (h *TestHelper) CaptureOutput(f func()) (stdout, stderr string) {
	// Capture stdout
	oldStdout := os.Stdout
	rOut, wOut, _ := os.Pipe()
	os.Stdout = wOut

	// Capture stderr
	oldStderr := os.Stderr
	rErr, wErr, _ := os.Pipe()
	os.Stderr = wErr

	outCh := make(chan string)
	errCh := make(chan string)
	go func() {
		b, _ := io.ReadAll(rOut)
		outCh <- string(b)
	}()
	go func() {
		b, _ := io.ReadAll(rErr)
		errCh <- string(b)
	}()

	// Execute function
	f()

	wOut.Close()
	wErr.Close()
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	return <-outCh, <-errCh
}

// PolicyGenerator produces synthetic policy records
type PolicyGenerator struct {
	seed     int
	start    time.Time
	products []string
}

// NewPolicyGenerator creates a generator whose first sale is on start
func NewPolicyGenerator(start time.Time, products ...string) *PolicyGenerator {
	if len(products) == 0 {
		products = []string{"Home", "Pet", "Travel"}
	}
	return &PolicyGenerator{seed: 1, start: start, products: products}
}

// Next returns one record. Every policy starts a week after its sale and
// every fifth policy is cancelled a month after starting.
func (g *PolicyGenerator) Next() map[string]interface{} {
	n := g.seed
	g.seed++

	sale := g.start.AddDate(0, 0, 9*(n-1))
	start := sale.AddDate(0, 0, 7)
	record := map[string]interface{}{
		"policy_number":           fmt.Sprintf("GEN%05d", n),
		"product_name":            g.products[(n-1)%len(g.products)],
		"sale_date":               sale.Format("2006-01-02"),
		"start_date":              start.Format("2006-01-02"),
		"cancel_date":             nil,
		"premium":                 100 + n,
		"ipt_percent":             12,
		"commission_SERL_percent": 20,
	}
	if n%5 == 0 {
		record["cancel_date"] = start.AddDate(0, 1, 0).Format("2006-01-02")
	}
	return record
}

// Records returns count records as a JSON array
func (g *PolicyGenerator) Records(count int) string {
	records := make([]map[string]interface{}, count)
	for i := range records {
		records[i] = g.Next()
	}
	data, err := json.Marshal(records)
	if err != nil {
		panic(err)
	}
	return string(data)
}
