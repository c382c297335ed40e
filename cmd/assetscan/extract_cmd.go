package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"assetscan/internal/export"
	"assetscan/internal/models"
	"assetscan/internal/queue"
)

var (
	extractProvider string
	extractCSV      string
	extractJSON     string
	extractXLSX     string
	extractNoStore  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Extract asset records from report files",
	Long:  `Runs the ingestion queue headlessly over the given HTML report files and prints the extracted records.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func init() {
	extractCmd.Flags().StringVar(&extractProvider, "provider", "", "Extraction provider (gemini or glm, default from config)")
	extractCmd.Flags().StringVar(&extractCSV, "csv", "", "Write extracted records to a CSV file")
	extractCmd.Flags().StringVar(&extractJSON, "json", "", "Write extracted records to a JSON file")
	extractCmd.Flags().StringVar(&extractXLSX, "xlsx", "", "Write extracted records to an XLSX workbook")
	extractCmd.Flags().BoolVar(&extractNoStore, "no-store", false, "Skip writing results to the local database")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if extractProvider != "" {
		cfg.Extraction.Provider = extractProvider
	}

	sess := newSession(cfg)

	var persister queue.Persister
	if !extractNoStore {
		st, err := openStore(cfg)
		if err != nil {
			log.Printf("Warning: %v (results will not be stored)", err)
		} else {
			defer st.Close()
			persister = st
		}
	}

	proc := queue.New(sess, providers(cfg), persister, queueOptions(cfg))
	proc.Start()
	defer proc.Stop()

	// Drain notifications so the queue never stalls on a full channel.
	done := make(chan struct{})
	go func() {
		for {
			select {
			case n := <-sess.Notifier.C():
				log.Println(n.Message)
			case <-done:
				return
			}
		}
	}()
	defer close(done)

	var files []queue.File
	for _, path := range args {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		files = append(files, queue.File{Name: filepath.Base(path), Content: content})
	}

	accepted := proc.Add(files)
	if accepted == 0 {
		return fmt.Errorf("no files accepted (allowed extensions: .html, .htm, .mhtml)")
	}

	waitForQueue(proc)

	records := sess.Records.Records()
	printRecords(records, assetListColumns)
	fmt.Printf("\n%d record(s) extracted from %d file(s)\n", len(records), accepted)

	if extractCSV != "" {
		if err := export.ToCSV(records, extractCSV); err != nil {
			return err
		}
		fmt.Println("Wrote", extractCSV)
	}
	if extractJSON != "" {
		if err := export.ToJSON(records, extractJSON); err != nil {
			return err
		}
		fmt.Println("Wrote", extractJSON)
	}
	if extractXLSX != "" {
		if err := export.ToXLSX(records, extractXLSX); err != nil {
			return err
		}
		fmt.Println("Wrote", extractXLSX)
	}
	return nil
}

// waitForQueue blocks until every queued task reaches a terminal state.
func waitForQueue(proc *queue.Processor) {
	for {
		settled := true
		for _, t := range proc.Tasks() {
			if t.Status == models.TaskStatusPending || t.Status == models.TaskStatusProcessing {
				settled = false
				break
			}
		}
		if settled {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// printRecords renders records as a terminal table limited to the given
// columns.
func printRecords(records []models.AssetRecord, columns []string) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, 0, len(columns))
	for _, col := range columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, rec := range records {
		row := make(table.Row, 0, len(columns))
		for _, col := range columns {
			row = append(row, rec.Get(col))
		}
		t.AppendRow(row)
	}
	t.Render()
}
