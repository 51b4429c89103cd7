package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/classify"
	"github.com/pililokal/merchant-ops/internal/ingest"
)

var importWorkbookPath string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import the leads workbook, replacing all stored leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		path := importWorkbookPath
		if path == "" {
			path = cfg.Import.WorkbookPath
		}
		if path == "" {
			return eris.New("workbook path is required (--workbook or PILILOKAL_IMPORT_WORKBOOK_PATH)")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		wb, err := ingest.ReadWorkbook(ctx, path)
		if err != nil {
			return eris.Wrap(err, "read workbook")
		}
		leads := classify.EnrichAll(wb.Rows)

		n, err := st.ReplaceLeads(ctx, leads)
		if err != nil {
			return eris.Wrap(err, "replace leads")
		}

		for sheet, count := range wb.BySheet {
			zap.L().Info("sheet imported",
				zap.String("sheet", string(sheet)),
				zap.Int("rows", count),
			)
		}
		zap.L().Info("import complete",
			zap.Int("imported", n),
			zap.String("workbook", path),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importWorkbookPath, "workbook", "", "path to xlsx workbook (default from config)")
	rootCmd.AddCommand(importCmd)
}
