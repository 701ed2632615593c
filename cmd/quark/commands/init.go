package commands

import (
	"fmt"

	"github.com/marmos91/quark/pkg/config"
	"github.com/spf13/cobra"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample quark configuration file.

By default, the configuration file is created at $XDG_CONFIG_HOME/quark/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  quark init

  # Initialize with custom path
  quark init --config /etc/quark/config.yaml

  # Force overwrite existing config
  quark init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()

	var err error
	if configPath != "" {
		err = config.InitConfigToPath(configPath, initForce)
	} else {
		configPath, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file, in particular serve_dir")
	fmt.Println("  2. Start the server with: quark start")
	fmt.Printf("  3. Or specify custom config: quark start --config %s\n", configPath)
	return nil
}
