package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aidigest/internal/model"
	"aidigest/internal/playback"
	"aidigest/pkg/digestapi"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	secret    string
	date      string
	ttsCmd    string
	rate      float64
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen to the daily AI news digest",
	Long: `listen plays a digest story by story and answers follow-up questions.

Commands while playing:
  p, <enter>    play or pause
  n / b         next or previous story
  j N           jump to story N
  ? QUESTION    ask about the current story
  d DATE        load another day ("March 3, 2025" or "today")
  r             retry after an error
  q             quit

Example usage:
  listen --url http://localhost:8080 --secret $DIGEST_SECRET
  listen --date "March 3, 2025" --tts espeak`,
	SilenceUsage: true,
	RunE:         runListen,
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "url", getEnv("DIGEST_URL", "http://localhost:8080"), "digest service base URL")
	rootCmd.Flags().StringVar(&secret, "secret", os.Getenv("DIGEST_SECRET"), "shared secret for the digest service")
	rootCmd.Flags().StringVar(&date, "date", model.TodayKey, "digest date to load")
	rootCmd.Flags().StringVar(&ttsCmd, "tts", "", "speech command to use (espeak or say); prints text when empty")
	rootCmd.Flags().Float64Var(&rate, "rate", playback.SpeechRate, "speech rate multiplier")
	rootCmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runListen(cmd *cobra.Command, args []string) error {
	if secret == "" {
		return fmt.Errorf("a shared secret is required (--secret or DIGEST_SECRET)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	speaker, err := newSpeaker(ttsCmd, rate)
	if err != nil {
		return err
	}

	client := digestapi.NewClient(serverURL, secret)
	player := playback.NewPlayer(client, speaker)
	console := newConsole(os.Stdout, !noColor)
	player.OnChange(console.Render)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go readCommands(os.Stdin, player, cancel, console)

	player.Send(playback.DigestRequested{Date: date})
	if err := player.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func readCommands(in *os.File, player *playback.Player, quit context.CancelFunc, console *console) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		event, done, err := parseCommand(scanner.Text())
		if done {
			quit()
			return
		}
		if err != nil {
			console.Warn(err.Error())
			continue
		}
		if event != nil {
			player.Send(event)
		}
	}
	quit()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
