package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"assetscan/internal/export"
	"assetscan/internal/models"
)

// assetListColumns is the subset shown in terminal tables; the full set
// would not fit a reasonable terminal width.
var assetListColumns = []string{
	models.ColAssetTag,
	models.ColComputerName,
	models.ColBrand,
	models.ColServiceTag,
	models.ColProcessorType,
	models.ColRAMGB,
	models.ColOSName,
	models.ColIPAddress,
}

var (
	assetsCSV  string
	assetsJSON string
	assetsXLSX string
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List assets in the local database",
	RunE:  runAssetsList,
}

var assetsDeleteCmd = &cobra.Command{
	Use:   "delete <asset-tag>",
	Short: "Delete an asset by tag",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetsDelete,
}

func init() {
	assetsCmd.Flags().StringVar(&assetsCSV, "csv", "", "Write assets to a CSV file")
	assetsCmd.Flags().StringVar(&assetsJSON, "json", "", "Write assets to a JSON file")
	assetsCmd.Flags().StringVar(&assetsXLSX, "xlsx", "", "Write assets to an XLSX workbook")
	assetsCmd.AddCommand(assetsDeleteCmd)
}

func runAssetsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListAssets(context.Background())
	if err != nil {
		return err
	}

	if assetsCSV != "" {
		if err := export.ToCSV(records, assetsCSV); err != nil {
			return err
		}
		fmt.Println("Wrote", assetsCSV)
		return nil
	}
	if assetsJSON != "" {
		if err := export.ToJSON(records, assetsJSON); err != nil {
			return err
		}
		fmt.Println("Wrote", assetsJSON)
		return nil
	}
	if assetsXLSX != "" {
		if err := export.ToXLSX(records, assetsXLSX); err != nil {
			return err
		}
		fmt.Println("Wrote", assetsXLSX)
		return nil
	}

	if len(records) == 0 {
		fmt.Println("No assets stored.")
		return nil
	}
	printRecords(records, assetListColumns)
	fmt.Printf("\n%d asset(s)\n", len(records))
	return nil
}

func runAssetsDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteAsset(context.Background(), args[0]); err != nil {
		return err
	}
	fmt.Println("Deleted", args[0])
	return nil
}
