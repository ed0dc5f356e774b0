package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/suhbatai/suhbat/internal/api"
	"github.com/suhbatai/suhbat/internal/chat"
	"github.com/suhbatai/suhbat/internal/client"
	"github.com/suhbatai/suhbat/internal/profession"
	"github.com/suhbatai/suhbat/internal/store"
)

const (
	PromptSeeResults = "See results"
	PromptExit       = "Exit"
)

var chatCmd = &cobra.Command{
	Use:   "chat [profession]",
	Short: "Take a mock interview against a running server",
	Long: "Take a mock interview against a running server. Without a profession argument " +
		"the available professions are fetched from the server and offered for selection.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		professionID := ""
		if len(args) == 1 {
			professionID = args[0]
		}
		return runChat(cmd.Context(), professionID)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("server", "s", "", "interview server url (default http://localhost:3000, or SUHBAT_SERVER_URL)")
	viper.BindPFlag("client.server-url", chatCmd.Flags().Lookup("server"))
}

func runChat(ctx context.Context, professionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	if err := checkServer(ctx, apiClient, config.Client.ServerURL, os.Stdout); err != nil {
		return err
	}

	if professionID == "" {
		professionID, err = selectProfession(ctx, apiClient)
		if err != nil {
			return err
		}
	}

	results, err := openStore(config)
	if err != nil {
		return err
	}
	defer results.Close()

	terminal := chat.NewTerminal(nil, nil)
	terminal.Header(profession.Default().Name(professionID))

	driver := chat.NewDriver(apiClient, terminal, professionID, logger)
	evaluation, err := driver.Run(ctx)
	if errors.Is(err, chat.ErrInterrupted) {
		fmt.Println("Interview cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	if err := results.Save(ctx, store.Snapshot{Profession: professionID, Evaluation: evaluation}); err != nil {
		return err
	}

	logger.Debug("interview results saved", zap.String("path", config.Store.Path))

	next := promptui.Select{
		Label: "Interview complete!",
		Items: []string{PromptSeeResults, PromptExit},
	}

	_, selected, err := next.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return nil
		}
		return err
	}

	if selected == PromptSeeResults {
		return showResults(ctx, results)
	}

	fmt.Printf("Your results are saved. Run `%s results` to see them.\n", app)
	return nil
}

// checkServer fails fast when the interview server cannot be reached and
// warns when it has no language model key.
func checkServer(ctx context.Context, apiClient *client.Client, serverURL string, out io.Writer) error {
	health, err := apiClient.Health(ctx)
	if err != nil {
		return fmt.Errorf("interview server at %s is not reachable: %w", serverURL, err)
	}

	if health.APIKey != api.KeyConfigured {
		fmt.Fprintf(out, "Warning: the server at %s has no %s API key, questions cannot be generated.\n", serverURL, health.APIProvider)
	}

	return nil
}

func selectProfession(ctx context.Context, apiClient *client.Client) (string, error) {
	professions, err := apiClient.Professions(ctx)
	if err != nil {
		return "", fmt.Errorf("fetching professions: %w", err)
	}
	if len(professions) == 0 {
		return "", errors.New("server offers no professions")
	}

	items := make([]string, len(professions))
	for i, p := range professions {
		items[i] = p.Name
	}

	prompt := promptui.Select{
		Label: "Choose a profession and press ENTER",
		Items: items,
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", err
	}

	return professions[idx].ID, nil
}
