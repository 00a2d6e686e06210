package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cnxepub "github.com/openstax/cnx-epub"
)

func newSingleHTMLCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "single-html <epub>",
		Short: "Merge an EPUB's pages into one HTML document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			pkgs, err := cnxepub.ReadEPUB(args[0])
			if err != nil {
				return err
			}
			root, err := cnxepub.Compose(pkgs...)
			if err != nil {
				return err
			}

			collator := cnxepub.NewCollator(cnxepub.WithLogger(log))
			collation, err := collator.Collate(cmd.Context(), root)
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
