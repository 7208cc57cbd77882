package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize pantry storage",
		Long: "Create the configuration and data directories, write config.yaml if it\n" +
			"is missing, and load the store once so the JSONL files and default\n" +
			"categories exist.",
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	configDir := a.config.Dir
	if err := ensureConfigDir(configDir); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	cfg := defaultConfigFile()
	cfg.DataDir = a.flags.dataDir
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), cfg); err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	if err := backend.Detach(); err != nil {
		return sysError(fmt.Errorf("finalize storage: %w", err))
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Pantry initialized successfully")
	fmt.Fprintln(out, "  config:", configDir)
	fmt.Fprintln(out, "  data:  ", backend.DataDir())
	return nil
}
