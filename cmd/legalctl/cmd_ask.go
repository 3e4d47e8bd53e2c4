package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

var serverURL string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a running LegalEase API a question",
	Long: `Ask a question and print the answer. With no arguments, reads
questions from stdin until "exit" or "quit".`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&serverURL, "server", "http://127.0.0.1:8080", "LegalEase API base URL")
}

type askResponse struct {
	Answer  string `json:"answer"`
	Context string `json:"context"`
	Error   string `json:"error"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if len(args) > 0 {
		return askOnce(out, strings.Join(args, " "), true)
	}

	fmt.Fprintln(out, "LegalEase. Type 'exit' to quit.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "Your question: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "exit", "quit":
			return nil
		case "":
			continue
		}

		if err := askOnce(out, question, false); err != nil {
			fmt.Fprintf(out, "Error: %v\n\n", err)
		}
	}
}

func askOnce(out io.Writer, question string, showContext bool) error {
	agent := fiber.Post(strings.TrimRight(serverURL, "/") + "/api/v1/ask")
	agent.Timeout(timeout).JSON(fiber.Map{"question": question})
	if err := agent.Parse(); err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}

	var resp askResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errs[0])
	}
	if code != fiber.StatusOK {
		if resp.Error == "" {
			resp.Error = fmt.Sprintf("status %d", code)
		}
		return fmt.Errorf("%s", resp.Error)
	}

	fmt.Fprintf(out, "\nAnswer:\n%s\n\n", resp.Answer)
	if showContext {
		fmt.Fprintf(out, "Context:\n%s\n", resp.Context)
	}
	return nil
}
