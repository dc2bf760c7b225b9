package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/fieldcrew/api/internal/pkg/log"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "fieldcrew",
		Short:         "Fieldcrew API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
}
