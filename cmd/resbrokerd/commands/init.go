package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/deviceflow/resbroker/internal/cli/prompt"
	"github.com/deviceflow/resbroker/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample resbrokerd configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/resbrokerd/config.yaml. Use --config to specify a custom path.

Examples:
  # Initialize with default location
  resbrokerd init

  # Initialize with custom path
  resbrokerd init --config /etc/resbrokerd/config.yaml

  # Force overwrite existing config
  resbrokerd init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing config file without prompting")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	path := configFile
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil && !initForce {
		confirmed, err := prompt.Confirm(fmt.Sprintf("%s already exists. Overwrite?", path), false)
		if err != nil {
			if prompt.IsAborted(err) {
				cmd.Println("aborted")
				return nil
			}
			return err
		}
		if !confirmed {
			cmd.Println("aborted")
			return nil
		}
		initForce = true
	}

	var err error
	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
	} else {
		path, err = config.InitConfig(initForce)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	cmd.Printf("Configuration file created at: %s\n", path)
	cmd.Println("\nNext steps:")
	cmd.Println("  1. Edit the configuration file to customize your setup")
	cmd.Println("  2. Start the broker with: resbrokerd serve")
	cmd.Printf("  3. Or specify a custom config: resbrokerd serve --config %s\n", path)

	return nil
}
