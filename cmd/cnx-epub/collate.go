package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	cnxepub "github.com/openstax/cnx-epub"
)

func newCollateCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "collate <epub>",
		Short: "Collate an EPUB with the configured content transforms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			pkgs, err := cnxepub.ReadEPUB(args[0])
			if err != nil {
				return err
			}
			root, err := cnxepub.Compose(pkgs...)
			if err != nil {
				return err
			}

			opts := []cnxepub.CollatorOption{cnxepub.WithLogger(log)}
			if cfg.Timeout > 0 {
				opts = append(opts, cnxepub.WithTimeout(cfg.Timeout))
			}
			cache := cnxepub.NewMemoryCache()
			if cfg.MathMLURL != "" {
				opts = append(opts, cnxepub.WithRules(
					cnxepub.MathMLRule(cfg.MathMLURL, http.DefaultClient, cache)))
			}
			if cfg.Exercise.Match != "" && cfg.Exercise.URLTemplate != "" {
				opts = append(opts, cnxepub.WithRules(
					cnxepub.ExerciseRule(cfg.Exercise.Match, cfg.Exercise.URLTemplate,
						cfg.Exercise.Token, http.DefaultClient, cache)))
			}

			collation, err := cnxepub.NewCollator(opts...).Collate(cmd.Context(), root)
			if err != nil {
				return err
			}
			for _, w := range collation.Warnings {
				log.Warn(w)
			}

			data, err := collation.Bytes()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = os.Stdout.Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %q: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	return cmd
}
