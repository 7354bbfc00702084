// Package initcmder provides the init command for initializing a local
// .semsearch directory in the current working directory.
package initcmder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/semsearch/pkg/cliui"
	"github.com/papercomputeco/semsearch/pkg/config"
	"github.com/papercomputeco/semsearch/pkg/dotdir"
)

const initLongDesc string = `Initialize a new .semsearch/ directory in the current working directory.

Creates a local .semsearch/ directory that takes precedence over the default
~/.semsearch/ directory for configuration, the SQLite store and ingest state.

Use --preset to write a config.toml with defaults for an embedding provider.

Examples:
  semsearch init
  semsearch init --preset openai`

const initShortDesc string = "Initialize a local .semsearch/ directory"

type initCommander struct {
	preset string
	force  bool
	out    io.Writer
}

func NewInitCmd() *cobra.Command {
	cmder := &initCommander{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: initShortDesc,
		Long:  initLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.out = cmd.OutOrStdout()
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("getting current directory: %w", err)
			}
			return cmder.run(cwd)
		},
	}

	cmd.Flags().StringVar(&cmder.preset, "preset", "",
		fmt.Sprintf("Write config.toml for an embedding preset (%s)", strings.Join(config.ValidPresetNames(), ", ")))
	cmd.Flags().BoolVar(&cmder.force, "force", false, "Overwrite an existing config.toml when using --preset")

	return cmd
}

func (c *initCommander) run(parent string) error {
	manager := dotdir.NewManager()
	dir := filepath.Join(parent, ".semsearch")

	_, statErr := os.Stat(dir)
	existed := statErr == nil

	dir, err := manager.Init(parent)
	if err != nil {
		return err
	}

	if existed {
		fmt.Fprintf(c.out, "Already initialized: %s\n", dir)
	} else {
		fmt.Fprintf(c.out, "Initialized .semsearch directory: %s\n", dir)
	}

	if c.preset == "" {
		return nil
	}

	cfg, err := config.PresetConfig(c.preset)
	if err != nil {
		return err
	}

	cfger, err := config.NewConfiger(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if _, err := os.Stat(cfger.GetTarget()); err == nil && !c.force {
		return errors.New("config.toml already exists; pass --force to overwrite")
	}

	if err := cfger.SaveConfig(cfg); err != nil {
		return err
	}

	fmt.Fprintf(c.out, "  %s %s %s\n",
		cliui.SuccessMark,
		cliui.KeyStyle.Render("Wrote "+c.preset+" preset:"),
		cliui.DimStyle.Render(cfger.GetTarget()),
	)
	return nil
}
