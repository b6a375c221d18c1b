// Command submit-receipts sends a batch of receipt images to the expense
// backend and prints the resulting report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/paymejunior/backend/internal/entity"
	"github.com/paymejunior/backend/internal/ingest"
	"github.com/paymejunior/backend/internal/storage"
	"github.com/paymejunior/backend/pkg/utils"
)

func main() {
	_ = gotenv.Load()

	serverURL := flag.String("server", envOr("PAYMEJUNIOR_SERVER", "http://localhost:8000"), "base URL of the expense backend")
	reportName := flag.String("report", "", "name for the new expense report")
	timeout := flag.Duration("timeout", 120*time.Second, "per-request timeout")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: submit-receipts [flags] image...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      *logLevel,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	images := make([]ingest.SelectedImage, 0, flag.NArg())
	for _, path := range flag.Args() {
		info, err := os.Stat(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", path, err)
			os.Exit(1)
		}
		images = append(images, ingest.SelectedImage{
			URI:      path,
			FileName: filepath.Base(path),
			MimeType: storage.ContentTypeFor(path),
			FileSize: info.Size(),
		})
	}

	client := ingest.NewHTTPClient(*serverURL, *timeout, logger)
	orchestrator := ingest.NewOrchestrator(client, ingest.FileEncoder{}, logger)
	state := ingest.NewAppState()

	ctx := context.Background()
	result, err := orchestrator.ProcessReceipts(ctx, images, *reportName)
	if err != nil {
		logger.Error("Batch failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Submission failed: %v\n", err)
		os.Exit(1)
	}

	// Commit the finished batch into app state before reporting
	state.SetCurrentReport(&entity.ExpenseReport{
		ID:   result.ReportID,
		Name: result.ReportName,
	})
	state.SetExpenses(result.Expenses)

	printResult(result)

	if result.Summary.Failed > 0 {
		os.Exit(1)
	}
}

func printResult(result *ingest.IngestionResult) {
	fmt.Printf("Report: %s (%s)\n", result.ReportName, result.ReportID)
	fmt.Printf("Processed %d receipt(s): %d succeeded, %d failed\n\n",
		result.Summary.Total, result.Summary.Successful, result.Summary.Failed)

	for _, expense := range result.Expenses {
		fmt.Printf("  %-12s %-30s %10.2f %s  %s\n",
			expense.Date, expense.Merchant, expense.Amount, expense.Currency, expense.Category)
	}

	if len(result.FailedReceipts) > 0 {
		fmt.Println("\nFailed receipts:")
		for _, failed := range result.FailedReceipts {
			fmt.Printf("  %s: %s\n", failed.Filename, failed.Error)
		}
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
