package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/suhbatai/suhbat/internal/profession"
)

var professionsCmd = &cobra.Command{
	Use:   "professions",
	Short: "List the professions offered for interviews",
	RunE: func(cmd *cobra.Command, _ []string) error {
		local, _ := cmd.Flags().GetBool("local")
		if local {
			return printProfessions(os.Stdout, profession.Default().List())
		}

		logger, err := newClientLogger()
		if err != nil {
			return err
		}

		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		apiClient, err := newAPIClient(config, logger)
		if err != nil {
			return err
		}

		list, err := apiClient.Professions(cmd.Context())
		if err != nil {
			return fmt.Errorf("fetching professions: %w", err)
		}

		return printProfessions(os.Stdout, list)
	},
}

func init() {
	rootCmd.AddCommand(professionsCmd)

	professionsCmd.Flags().BoolP("local", "l", false, "list the built-in catalog without contacting a server")
}

func printProfessions(w io.Writer, list []profession.Summary) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSKILLS")
	for _, p := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, strings.Join(p.Skills, ", "))
	}
	return tw.Flush()
}
