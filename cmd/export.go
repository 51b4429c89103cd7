package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pililokal/merchant-ops/internal/export"
)

var exportOutPath string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the merchant roster to an xlsx workbook",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		merchants, err := st.ListMerchants(ctx)
		if err != nil {
			return eris.Wrap(err, "list merchants")
		}

		f, err := os.Create(exportOutPath)
		if err != nil {
			return eris.Wrap(err, "create output file")
		}
		defer f.Close()

		if err := export.WriteMerchants(f, merchants); err != nil {
			return err
		}

		zap.L().Info("export complete",
			zap.Int("merchants", len(merchants)),
			zap.String("out", exportOutPath),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOutPath, "out", "merchants.xlsx", "output xlsx path")
	rootCmd.AddCommand(exportCmd)
}
