package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "denialguard",
	Short: "DenialGuard - archetype-driven Medicare claim correction",
	Long: `DenialGuard diagnoses and corrects Medicare claim denial risk.

For each diagnosis/procedure pairing flagged by the upstream analyzer it:
- classifies the issue into a denial archetype (NCCI PTP conflict,
  non-covered diagnosis, MUE risk, terminated NCD, ...)
- gathers corroborating evidence from the rules database, retrying through
  the ICD-9/ICD-10 crosswalk when needed
- retrieves supporting CMS policy excerpts from the semantic index
- synthesizes structured, schema-valid correction recommendations

Every issue yields a complete result: when the database, the policy index,
or the generative model is unavailable, deterministic fallbacks substitute
and the output is marked accordingly.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for DenialGuard.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("denialguard v0.1.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.denialguard/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.denialguard")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match DENIALGUARD_*
	viper.SetEnvPrefix("DENIALGUARD")
	viper.AutomaticEnv()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}
