package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	cnxepub "github.com/openstax/cnx-epub"
)

func newPackCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "pack <single-html>",
		Short: "Rebuild a book from a collated single-HTML file and pack it as EPUB",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}
			defer log.Sync()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %q: %w", args[0], err)
			}
			root, err := cnxepub.ParseHTML(data)
			if err != nil {
				return err
			}
			binder, err := cnxepub.Reconstitute(root)
			if err != nil {
				return err
			}

			out, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %q: %w", output, err)
			}
			defer out.Close()

			if err := cnxepub.WriteEPUB(out, binder); err != nil {
				return err
			}
			log.Info("packed epub",
				zap.String("source", args[0]),
				zap.String("target", output),
				zap.String("book", binder.ID()))
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "out.epub", "output epub path")
	return cmd
}
