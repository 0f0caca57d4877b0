package main

import (
	"github.com/Sternrassler/stars-export/pkg/config"
	"github.com/Sternrassler/stars-export/pkg/export"
	"github.com/Sternrassler/stars-export/pkg/logging"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	var outputDir, configPath string

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert existing export files between formats",
		Long: `Convert export files: .json becomes .csv and .xlsx, .csv becomes
.xlsx, and .xlsx becomes .csv. Output is written next to each input unless
--output-dir is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if _, _, err := logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.Log.Level),
				Pretty: cfg.Log.Pretty,
				Output: cmd.ErrOrStderr(),
			}); err != nil {
				return err
			}

			for _, input := range args {
				paths, err := export.ConvertFile(input, outputDir)
				if err != nil {
					return err
				}
				for _, p := range paths {
					cmd.Printf("%s -> %s\n", input, p)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "directory for converted files")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file (log settings)")
	return cmd
}
