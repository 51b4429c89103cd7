package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pililokal/merchant-ops/internal/report"
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "Inspect the imported lead pipeline",
}

var leadsStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print pipeline KPIs and per-sheet counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		leads, err := st.ListLeads(ctx)
		if err != nil {
			return err
		}
		snap := report.BuildSnapshot(leads)

		fmt.Printf("Total leads:           %d\n", snap.KPIs.Total)
		fmt.Printf("PH confirmed:          %d\n", snap.KPIs.PHConfirmed)
		fmt.Printf("US confirmed:          %d\n", snap.KPIs.USConfirmed)
		fmt.Printf("Sample received:       %d\n", snap.KPIs.SampleReceived)
		fmt.Printf("Shipped / in transit:  %d\n", snap.KPIs.ShippedInTransit)
		fmt.Printf("Interested:            %d\n", snap.KPIs.Interested)
		fmt.Printf("PH leads:              %d\n", snap.KPIs.PHLeads)
		fmt.Printf("US leads:              %d\n", snap.KPIs.USLeads)
		fmt.Printf("Previous clients:      %d\n", snap.KPIs.PreviousClients)
		fmt.Printf("Awaiting response:     %d\n", snap.KPIs.AwaitingResponse)
		fmt.Printf("No answer/unreachable: %d\n", snap.KPIs.NoAnswerUnreachable)
		fmt.Println()
		for sheet, rows := range snap.BySheet {
			fmt.Printf("%-28s %d\n", sheet, len(rows))
		}
		return nil
	},
}

func init() {
	leadsCmd.AddCommand(leadsStatusCmd)
	rootCmd.AddCommand(leadsCmd)
}
