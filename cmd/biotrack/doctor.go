package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"biotrack/internal/config"
	"biotrack/internal/provider"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on your biotrack installation",
		Long: `Verifies that biotrack's configuration and upstream APIs are correctly
set up. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			cfgPath := resolveConfigPath()
			fmt.Printf("Biotrack Doctor v%s\n", version)
			fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

			passed := 0
			failed := 0
			warned := 0

			// 1. Config file exists
			if _, err := os.Stat(cfgPath); err != nil {
				printFail("Config file", fmt.Sprintf("not found at %s", cfgPath))
				failed++
				fmt.Printf("\nRun 'biotrack init' to create a default configuration.\n")
				return nil
			}
			printPass("Config file", cfgPath)
			passed++

			// 2. Config loads and validates
			cfg, err := config.Load(cfgPath)
			if err != nil {
				printFail("Config validation", err.Error())
				fmt.Printf("\nResults: %d passed, %d failed\n", passed, failed+1)
				return nil
			}
			printPass("Config validation", "valid")
			passed++

			// 3. Credentials present
			if cfg.Telegram.Token == "" {
				printFail("Telegram token", "not configured (TELEGRAM_BOT_TOKEN)")
				failed++
			} else {
				printPass("Telegram token", "configured")
				passed++
			}
			if cfg.Groq.APIKey == "" {
				printFail("Groq API key", "not configured (GROQ_API_KEY)")
				failed++
			} else {
				printPass("Groq API key", "configured")
				passed++
			}
			if cfg.Gemini.APIKey == "" {
				printWarn("Gemini API key", "not configured, photo analysis disabled (GEMINI_API_KEY)")
				warned++
			} else {
				printPass("Gemini API key", "configured")
				passed++
			}

			// 4. Groq reachable
			if cfg.Groq.APIKey != "" {
				groq, err := provider.NewGroq(provider.GroqConfig{
					APIKey:  cfg.Groq.APIKey,
					APIBase: cfg.Groq.APIBase,
					Logger:  logger,
				})
				if err != nil {
					printFail("Groq API", err.Error())
					failed++
				} else {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					err := groq.Healthy(ctx)
					cancel()
					if err != nil {
						printFail("Groq API", err.Error())
						failed++
					} else {
						printPass("Groq API", "reachable")
						passed++
					}
				}
			}

			// 5. Webhook port
			if cfg.Telegram.Mode == "webhook" {
				port := cfg.Telegram.WebhookPort
				if err := checkPort(port); err != nil {
					printWarn("Webhook port", fmt.Sprintf("port %d may be in use: %v", port, err))
					warned++
				} else {
					printPass("Webhook port", fmt.Sprintf(":%d available", port))
					passed++
				}
			}

			// Summary
			fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
			fmt.Printf("Results: %d passed, %d warnings, %d failed\n", passed, warned, failed)
			if failed > 0 {
				fmt.Printf("\nPlease fix the failed checks before running biotrack.\n")
				return fmt.Errorf("%d check(s) failed", failed)
			}
			if warned > 0 {
				fmt.Printf("\nBiotrack should work but consider fixing the warnings.\n")
			} else {
				fmt.Printf("\nAll checks passed! Biotrack is ready to run.\n")
			}
			return nil
		},
	}
}

func checkPort(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func printPass(check, detail string) {
	fmt.Printf("  [PASS] %-20s %s\n", check, detail)
}

func printFail(check, detail string) {
	fmt.Printf("  [FAIL] %-20s %s\n", check, detail)
}

func printWarn(check, detail string) {
	fmt.Printf("  [WARN] %-20s %s\n", check, detail)
}
