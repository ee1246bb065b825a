package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

// medicineCmd groups the medicine lookup commands.
var medicineCmd = &cobra.Command{
	Use:     "medicine",
	Aliases: []string{"med"},
	Short:   "Look up medicine information",
}

// medicineInfoCmd represents the medicine info command.
var medicineInfoCmd = &cobra.Command{
	Use:   "info NAME...",
	Short: "Show information about a medicine",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMedicineInfo,
}

// medicineNewCmd represents the medicine new command.
var medicineNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Show recently approved medicines",
	RunE:  runMedicineNew,
}

var medicineNewFlagLimit int

func init() {
	medicineNewCmd.Flags().IntVar(&medicineNewFlagLimit, "limit", 0, "Maximum entries to show")

	medicineCmd.AddCommand(medicineInfoCmd)
	medicineCmd.AddCommand(medicineNewCmd)
	rootCmd.AddCommand(medicineCmd)
}

func runMedicineInfo(cmd *cobra.Command, args []string) error {
	name := strings.Join(args, " ")

	info, err := ctx.Feed().MedicineInfo(cmd.Context(), name)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(info)
	}

	ctx.CLIFormatter().PrintMedicineInfo(name, info)
	return nil
}

func runMedicineNew(cmd *cobra.Command, args []string) error {
	medicines, err := ctx.Feed().NewMedicines(cmd.Context(), medicineNewFlagLimit)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.JSON(medicines)
	}

	ctx.CLIFormatter().PrintNewMedicines(medicines)
	return nil
}
