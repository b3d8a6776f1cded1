// Benchmark tool for testing Harrier against labeled transaction data.
//
// Usage:
//   go run cmd/benchmark/main.go -csv /path/to/transactions.csv -url http://localhost:8080
//
// This tool:
//   1. Reads labeled transaction data (with a should_flag column)
//   2. Sends each transaction to Harrier for screening
//   3. Compares Harrier's disposition (APPROVED vs anything else) with the labels
//   4. Calculates precision, recall, F1-score, and confusion matrix
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// LabeledTransaction represents a row from the benchmark dataset
type LabeledTransaction struct {
	TransactionID string
	UserID        string
	Amount        float64
	Merchant      string
	Category      string
	Description   string
	Timestamp     string
	ShouldFlag    bool
}

// ScreenRequest is the Harrier API request format
type ScreenRequest struct {
	TransactionID string  `json:"transaction_id"`
	UserID        string  `json:"user_id"`
	Amount        float64 `json:"amount"`
	Merchant      string  `json:"merchant"`
	Category      string  `json:"category,omitempty"`
	Description   string  `json:"description,omitempty"`
	Timestamp     string  `json:"timestamp,omitempty"`
}

// ScreenResponse is the subset of the Harrier API response the benchmark reads
type ScreenResponse struct {
	TransactionID string `json:"transaction_id"`
	OverallStatus string `json:"overall_status"`
	Fraud         struct {
		RiskLevel string  `json:"risk_level"`
		Score     float64 `json:"score"`
	} `json:"fraud_analysis"`
}

// Metrics tracks benchmark results
type Metrics struct {
	TruePositives  int64 // Labeled flag, screened as non-APPROVED
	FalsePositives int64 // Labeled clean, screened as non-APPROVED
	TrueNegatives  int64 // Labeled clean, screened as APPROVED
	FalseNegatives int64 // Labeled flag, screened as APPROVED (missed!)

	TotalProcessed int64
	TotalFlagged   int64
	TotalClean     int64
	TotalErrors    int64

	ProcessingTimeMs int64
}

func main() {
	csvPath := flag.String("csv", "", "Path to labeled transaction CSV file")
	baseURL := flag.String("url", "http://localhost:8080", "Harrier base URL")
	limit := flag.Int("limit", 10000, "Maximum transactions to process (0 = all)")
	workers := flag.Int("workers", 10, "Number of concurrent workers")
	flaggedOnly := flag.Bool("flagged-only", false, "Only test transactions labeled for flagging")
	verbose := flag.Bool("verbose", false, "Print each transaction result")
	flag.Parse()

	if *csvPath == "" {
		fmt.Println("Usage: benchmark -csv /path/to/transactions.csv [-url http://localhost:8080]")
		fmt.Println("\nFlags:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║        HARRIER BENCHMARK - Transaction Screening              ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nCSV File:     %s\n", *csvPath)
	fmt.Printf("Harrier URL:  %s\n", *baseURL)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Limit:        %d\n", *limit)
	fmt.Printf("Flagged Only: %v\n", *flaggedOnly)
	fmt.Println()

	if err := checkHealth(*baseURL); err != nil {
		fmt.Printf("ERROR: Harrier not reachable at %s: %v\n", *baseURL, err)
		fmt.Println("\nMake sure Harrier is running:")
		fmt.Println("  go run cmd/harrier/main.go")
		os.Exit(1)
	}
	fmt.Println("✓ Harrier is healthy")

	fmt.Printf("\nReading transactions from %s...\n", *csvPath)
	transactions, err := readCSV(*csvPath, *limit, *flaggedOnly)
	if err != nil {
		fmt.Printf("ERROR: Failed to read CSV: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✓ Loaded %d transactions\n", len(transactions))

	flaggedCount := 0
	for _, tx := range transactions {
		if tx.ShouldFlag {
			flaggedCount++
		}
	}
	fmt.Printf("  - Should flag: %d (%.2f%%)\n", flaggedCount, 100*float64(flaggedCount)/float64(len(transactions)))
	fmt.Printf("  - Clean:       %d (%.2f%%)\n", len(transactions)-flaggedCount, 100*float64(len(transactions)-flaggedCount)/float64(len(transactions)))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(transactions, *baseURL, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

func checkHealth(baseURL string) error {
	resp, err := http.Get(baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

// readCSV expects a header row with at least transaction_id, user_id, amount,
// merchant and should_flag columns. Extra columns are passed through when
// recognized and ignored otherwise.
func readCSV(path string, limit int, flaggedOnly bool) ([]LabeledTransaction, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{"transaction_id", "user_id", "amount", "merchant", "should_flag"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := colIndex[name]
		if !ok || idx >= len(record) {
			return ""
		}
		return record[idx]
	}

	var transactions []LabeledTransaction

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // Skip malformed rows
		}

		shouldFlag := field(record, "should_flag") == "1" || strings.EqualFold(field(record, "should_flag"), "true")
		if flaggedOnly && !shouldFlag {
			continue
		}

		amount, _ := strconv.ParseFloat(field(record, "amount"), 64)

		transactions = append(transactions, LabeledTransaction{
			TransactionID: field(record, "transaction_id"),
			UserID:        field(record, "user_id"),
			Amount:        amount,
			Merchant:      field(record, "merchant"),
			Category:      field(record, "category"),
			Description:   field(record, "description"),
			Timestamp:     field(record, "timestamp"),
			ShouldFlag:    shouldFlag,
		})

		if limit > 0 && len(transactions) >= limit {
			break
		}
	}

	return transactions, nil
}

func runBenchmark(transactions []LabeledTransaction, baseURL string, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan LabeledTransaction, 100)
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}

			for tx := range work {
				start := time.Now()
				result, err := screenTransaction(client, baseURL, tx)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.TotalErrors, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", tx.TransactionID, err)
					}
					continue
				}

				if tx.ShouldFlag {
					atomic.AddInt64(&metrics.TotalFlagged, 1)
				} else {
					atomic.AddInt64(&metrics.TotalClean, 1)
				}

				predicted := result.OverallStatus != "APPROVED"
				actual := tx.ShouldFlag

				if predicted && actual {
					atomic.AddInt64(&metrics.TruePositives, 1)
				} else if predicted && !actual {
					atomic.AddInt64(&metrics.FalsePositives, 1)
				} else if !predicted && !actual {
					atomic.AddInt64(&metrics.TrueNegatives, 1)
				} else { // !predicted && actual
					atomic.AddInt64(&metrics.FalseNegatives, 1)
				}

				if verbose {
					status := "✓"
					if (predicted && !actual) || (!predicted && actual) {
						status = "✗"
					}
					merchant := tx.Merchant
					if len(merchant) > 20 {
						merchant = merchant[:20]
					}
					fmt.Printf("%s %-12s | Merchant: %-20s | Amount: $%12.2f | Label: %-5v | Harrier: %-19s (fraud %s %.2f)\n",
						status,
						tx.TransactionID,
						merchant,
						tx.Amount,
						tx.ShouldFlag,
						result.OverallStatus,
						result.Fraud.RiskLevel,
						result.Fraud.Score,
					)
				}
			}
		}()
	}

	for _, tx := range transactions {
		work <- tx
	}
	close(work)

	wg.Wait()

	return metrics
}

func screenTransaction(client *http.Client, baseURL string, tx LabeledTransaction) (*ScreenResponse, error) {
	req := ScreenRequest{
		TransactionID: tx.TransactionID,
		UserID:        tx.UserID,
		Amount:        tx.Amount,
		Merchant:      tx.Merchant,
		Category:      tx.Category,
		Description:   tx.Description,
		Timestamp:     tx.Timestamp,
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, baseURL+"/screen", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	var result ScreenResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DATASET STATISTICS\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Should Flag:      %d\n", m.TotalFlagged)
	fmt.Printf("   Clean:            %d\n", m.TotalClean)
	fmt.Printf("   Errors:           %d\n", m.TotalErrors)

	fmt.Printf("\n📈 CONFUSION MATRIX\n")
	fmt.Println("                        Predicted")
	fmt.Println("                  Flagged     Approved")
	fmt.Println("              ┌──────────┬──────────┐")
	fmt.Printf("   Actual  F  │ %8d │ %8d │  (TP, FN)\n", m.TruePositives, m.FalseNegatives)
	fmt.Println("              ├──────────┼──────────┤")
	fmt.Printf("           C  │ %8d │ %8d │  (FP, TN)\n", m.FalsePositives, m.TrueNegatives)
	fmt.Println("              └──────────┴──────────┘")

	precision := float64(0)
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}

	recall := float64(0)
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}

	f1 := float64(0)
	if precision+recall > 0 {
		f1 = 2 * (precision * recall) / (precision + recall)
	}

	accuracy := float64(0)
	total := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	if total > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(total)
	}

	fmt.Printf("\n🎯 SCREENING METRICS\n")
	fmt.Printf("   Precision:  %.4f  (of flagged, how many deserved it)\n", precision)
	fmt.Printf("   Recall:     %.4f  (of bad transactions, how many did we catch)\n", recall)
	fmt.Printf("   F1-Score:   %.4f  (harmonic mean of precision & recall)\n", f1)
	fmt.Printf("   Accuracy:   %.4f  (overall correct dispositions)\n", accuracy)

	fmt.Printf("\n🔍 DETECTION ANALYSIS\n")
	if m.TotalFlagged > 0 {
		detectionRate := float64(m.TruePositives) / float64(m.TotalFlagged) * 100
		missRate := float64(m.FalseNegatives) / float64(m.TotalFlagged) * 100
		fmt.Printf("   Caught:            %d / %d (%.2f%%)\n", m.TruePositives, m.TotalFlagged, detectionRate)
		fmt.Printf("   Missed:            %d / %d (%.2f%%) ⚠️\n", m.FalseNegatives, m.TotalFlagged, missRate)
	}
	if m.TotalClean > 0 {
		falseAlarmRate := float64(m.FalsePositives) / float64(m.TotalClean) * 100
		fmt.Printf("   False Alarms:      %d / %d (%.2f%%)\n", m.FalsePositives, m.TotalClean, falseAlarmRate)
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f tx/sec\n", tps)
	}

	fmt.Println()
}
