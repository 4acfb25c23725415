package cli

import (
	"github.com/spf13/cobra"

	"github.com/mcoot/mpcoord/internal/api/request"
)

func newUniverseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "universe",
		Short: "Show or update the shared universe state",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Universe(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.AddCommand(newUniverseUpdateCmd())

	return cmd
}

func newUniverseUpdateCmd() *cobra.Command {
	var req request.SharedStateRequest
	var universeTime float64
	var economy, relations string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge an update into the shared universe state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("time") {
				req.UniverseTime = &universeTime
			}
			var err error
			if req.EconomyData, err = jsonFlag("economy", economy); err != nil {
				return err
			}
			if req.FactionRelations, err = jsonFlag("relations", relations); err != nil {
				return err
			}

			result, err := apiClient.UpdateSharedState(cmd.Context(), req)
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.PlayerID, "id", "", "Reporting player id")
	cmd.Flags().Float64Var(&universeTime, "time", 0, "Universe time")
	cmd.Flags().StringVar(&economy, "economy", "", "Global economy data as JSON")
	cmd.Flags().StringVar(&relations, "relations", "", "Faction relations as JSON")

	return cmd
}

func newEconomyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "economy",
		Short: "Show or submit economy data",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := apiClient.Economy(cmd.Context())
			if err != nil {
				return err
			}
			output(cmd).Print(result)
			return nil
		},
	}

	cmd.AddCommand(newEconomySubmitCmd())

	return cmd
}

func newEconomySubmitCmd() *cobra.Command {
	var req request.DetailedEconomyRequest
	var stations, prices, supplyDemand string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit this player's economy sections",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.Stations, err = jsonFlag("stations", stations); err != nil {
				return err
			}
			if req.Prices, err = jsonFlag("prices", prices); err != nil {
				return err
			}
			if req.SupplyDemand, err = jsonFlag("supply-demand", supplyDemand); err != nil {
				return err
			}

			if err := apiClient.SubmitEconomy(cmd.Context(), req); err != nil {
				return err
			}
			output(cmd).PrintMessage("Economy data submitted")
			return nil
		},
	}

	cmd.Flags().StringVar(&stations, "stations", "", "Stations as JSON")
	cmd.Flags().StringVar(&prices, "prices", "", "Prices as JSON")
	cmd.Flags().StringVar(&supplyDemand, "supply-demand", "", "Supply and demand as JSON")

	return cmd
}
