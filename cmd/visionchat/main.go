package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/calvertml/visionchat"
	"github.com/calvertml/visionchat/chat"
	"github.com/calvertml/visionchat/config"
	"github.com/calvertml/visionchat/s3util"
	"github.com/calvertml/visionchat/vision"
)

var (
	configPath  string
	historyPath string
	debug       bool
)

func main() {
	root := &cobra.Command{
		Use:   "visionchat",
		Short: "Chat with and analyze images through interchangeable AI providers",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := zerolog.InfoLevel
			if debug {
				level = zerolog.DebugLevel
			}
			log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "configuration file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(chatCmd(), analyzeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initDriver resolves the configured provider and returns an initialized
// driver.
func initDriver() (string, visionchat.Driver, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", nil, err
	}
	name, driverCfg, err := cfg.Driver()
	if err != nil {
		return "", nil, err
	}
	factory, err := visionchat.Resolve(name)
	if err != nil {
		return "", nil, err
	}
	driver := factory()
	if err := driver.Initialize(driverCfg); err != nil {
		return "", nil, err
	}
	return name, driver, nil
}

func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Run an interactive chat session",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, driver, err := initDriver()
			if err != nil {
				return err
			}

			history, err := chat.LoadHistory(historyPath)
			if err != nil {
				return err
			}
			session := chat.NewSession(driver, history, os.Stdout)

			ctx := context.Background()
			if _, err := session.ProcessInitialPrompt(ctx, "assistant.txt"); err != nil {
				fmt.Fprintln(os.Stderr, "Error:", err)
			}

			fmt.Printf("Chat started using %s. Type 'QUIT' to exit.\n", strings.ToUpper(name))
			fmt.Println(strings.Repeat("-", 50))

			scanner := bufio.NewScanner(os.Stdin)
			for {
				fmt.Print("\nYou: ")
				if !scanner.Scan() {
					break
				}
				input := strings.TrimSpace(scanner.Text())
				if input == "" {
					continue
				}
				if strings.EqualFold(input, "QUIT") {
					break
				}

				fmt.Println("\nAssistant:")
				if _, err := session.Send(ctx, input); err != nil {
					fmt.Fprintln(os.Stderr, "\nError:", err)
					continue
				}
				fmt.Println()
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&historyPath, "history", "chat.json", "chat history file")
	return cmd
}

func analyzeCmd() *cobra.Command {
	var hint, prompt string
	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Upload a food image and describe it with a vision model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, driver, err := initDriver()
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, err := s3util.New(ctx, s3util.Options{
				AccessKey: os.Getenv("AWS_ACCESS_KEY"),
				SecretKey: os.Getenv("AWS_SECRET_KEY"),
				Region:    os.Getenv("AWS_REGION"),
				Bucket:    os.Getenv("AWS_BUCKET"),
			})
			if err != nil {
				return err
			}

			analyzer := vision.NewAnalyzer(driver, store)
			analyzer.Hint = hint
			analyzer.Prompt = prompt

			fmt.Printf("\nAnalyzing image: %s\n", args[0])
			url, description, err := analyzer.Analyze(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Println("\nResults:")
			fmt.Println(strings.Repeat("-", 50))
			fmt.Printf("Image URL: %s\n", url)
			fmt.Println("\nDescription:")
			fmt.Println(strings.Repeat("-", 50))
			fmt.Println(description)
			return nil
		},
	}
	cmd.Flags().StringVar(&hint, "hint", "", "optional hint about the image content")
	cmd.Flags().StringVar(&prompt, "prompt", "", "custom prompt for the vision analysis")
	return cmd
}
