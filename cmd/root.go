package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pkallio/photoguard-go/cmd/file"
	"github.com/pkallio/photoguard-go/cmd/serve"
	"github.com/pkallio/photoguard-go/internal/conf"
)

// RootCommand creates and returns the root command
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photoguard",
		Short: "PhotoGuard moderation engine CLI",
	}

	// Set up the global flags for the root command.
	if err := setupFlags(rootCmd, settings); err != nil {
		cobra.CheckErr(err)
	}

	rootCmd.AddCommand(
		file.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Moderation.DefaultProvider, "provider", settings.Moderation.DefaultProvider, "Analysis provider to use: openmoderation or seeded")
	rootCmd.PersistentFlags().Float64Var(&settings.Moderation.AutoApproveThreshold, "approve-threshold", settings.Moderation.AutoApproveThreshold, "Scores at or below this value auto-approve, between 0.0 and 1.0")
	rootCmd.PersistentFlags().Float64Var(&settings.Moderation.AutoRejectThreshold, "reject-threshold", settings.Moderation.AutoRejectThreshold, "Scores at or above this value auto-reject, between 0.0 and 1.0")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %w", err)
	}

	return nil
}
