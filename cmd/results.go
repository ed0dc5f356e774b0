package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/suhbatai/suhbat/internal/profession"
	"github.com/suhbatai/suhbat/internal/results"
	"github.com/suhbatai/suhbat/internal/store"
)

const (
	PromptTryAgain = "Try again"
	PromptBackHome = "Back home"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the results of the last interview",
	RunE: func(cmd *cobra.Command, _ []string) error {
		config, err := getConfig()
		if err != nil {
			return fmt.Errorf("getting a config: %w", err)
		}

		s, err := openStore(config)
		if err != nil {
			return err
		}
		defer s.Close()

		return showResults(cmd.Context(), s)
	},
}

func init() {
	rootCmd.AddCommand(resultsCmd)
}

func showResults(ctx context.Context, s *store.SQLiteStore) error {
	if ctx == nil {
		ctx = context.Background()
	}

	snap, err := s.Load(ctx)
	if errors.Is(err, store.ErrNotFound) {
		fmt.Println("No interview results found! Please complete an interview first.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	if err := results.Render(os.Stdout, profession.Default().Name(snap.Profession), snap.Evaluation); err != nil {
		return err
	}
	fmt.Println()

	prompt := promptui.Select{
		Label: "What next?",
		Items: []string{PromptTryAgain, PromptBackHome},
	}

	_, selected, err := prompt.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		return err
	}

	// Both actions consume the stored result.
	if err := s.Clear(ctx); err != nil {
		return err
	}

	if selected == PromptTryAgain {
		s.Close()
		return runChat(ctx, snap.Profession)
	}

	return nil
}
