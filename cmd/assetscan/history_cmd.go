package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"assetscan/internal/export"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past extractions",
	RunE:  runHistoryList,
}

var historyShowJSON string

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the records of one extraction",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an extraction history entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	historyShowCmd.Flags().StringVar(&historyShowJSON, "json", "", "Write the entry's records to a JSON file")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	entries, err := st.ListHistory(context.Background())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No extractions recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "File", "Records", "Extracted At"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.Filename, len(e.Records), e.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	entry, err := st.GetHistory(context.Background(), args[0])
	if err != nil {
		return err
	}
	if entry == nil {
		return fmt.Errorf("history entry not found: %s", args[0])
	}

	if historyShowJSON != "" {
		if err := export.ToJSON(entry.Records, historyShowJSON); err != nil {
			return err
		}
		fmt.Println("Wrote", historyShowJSON)
		return nil
	}

	fmt.Printf("%s (%s)\n\n", entry.Filename, entry.CreatedAt.Format("2006-01-02 15:04:05"))
	printRecords(entry.Records, assetListColumns)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteHistory(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted", args[0])
	return nil
}
