package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		historyDir string
		searchMode bool
		keyword    string
		startDate  string
		endDate    string
	)

	cmd := &cobra.Command{
		Use:   "ai-debate",
		Short: "Multi-model debate system with persistent session history",
		Long: "Runs a structured three-phase debate (propose, critique, synthesize)\n" +
			"among several language-model backends and stores each session as a\n" +
			"searchable JSON history.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			LoadEnv()
			history := NewHistoryManager(historyDir)

			if searchMode {
				return runSearch(history, keyword, startDate, endDate)
			}

			models, err := LoadModels(configPath)
			if err != nil {
				// Proceed with whatever loaded, even zero models
				log.Printf("Error loading models from config: %v", err)
			}

			debate := NewDebate(models, history)
			return runInteractive(debate)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "config.json", "Path to the model configuration file")
	cmd.PersistentFlags().StringVar(&historyDir, "history-dir", HistoryDir, "Directory for debate session history")
	cmd.Flags().BoolVar(&searchMode, "search", false, "Search debate history instead of starting a debate")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Keyword to search for")
	cmd.Flags().StringVar(&startDate, "start-date", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&endDate, "end-date", "", "End date (YYYY-MM-DD)")

	cmd.AddCommand(newServeCmd(&configPath, &historyDir))

	return cmd
}

func newServeCmd(configPath, historyDir *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Start the HTTP API for the web front-end",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			LoadEnv()

			models, err := LoadModels(*configPath)
			if err != nil {
				log.Printf("Error loading models from config: %v", err)
			}

			history := NewHistoryManager(*historyDir)
			debate := NewDebate(models, history)
			server := NewServer(debate, history)

			log.Printf("Starting AI Debate backend on port %d...", port)
			return server.Run(fmt.Sprintf(":%d", port))
		},
	}

	cmd.Flags().IntVar(&port, "port", 8001, "Port to listen on")

	return cmd
}

// runInteractive reads debate topics until a quit sentinel and runs one
// full three-phase cycle per topic.
func runInteractive(debate *Debate) error {
	fmt.Printf("AI Debate System (Session ID: %s)\n\n", debate.SessionID)

	names := make([]string, 0, len(debate.Models))
	for _, model := range debate.Models {
		names = append(names, model.Name)
	}
	fmt.Printf("Models loaded: %s\n", strings.Join(names, ", "))
	fmt.Println("The debate will follow three phases: Propose → Critique & Refine → Synthesize")
	fmt.Println("Enter your question/topic or 'quit' to exit")

	rl, err := readline.New("\nYour debate topic> ")
	if err != nil {
		return fmt.Errorf("failed to initialize input: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			return nil
		}

		topic := strings.TrimSpace(line)
		if topic == "" {
			continue
		}
		switch strings.ToLower(topic) {
		case "quit", "exit", "q":
			fmt.Println("Exiting debate system.")
			return nil
		}

		results, err := debate.RunDebateCycle(context.Background(), topic)
		if err != nil {
			// The final persist is the one failure that must not be
			// swallowed
			return err
		}

		printCycleResults(results)
		fmt.Println("\nDebate cycle complete. Enter a new topic or 'quit' to exit.")
	}
}

// printCycleResults prints each phase's responses in turn order.
func printCycleResults(results *CycleResults) {
	fmt.Println("\n=== DEBATE CYCLE SUMMARY ===")

	for _, phase := range DebatePhases {
		fmt.Printf("\n--- %s PHASE RESPONSES ---\n", strings.ToUpper(phase))
		for _, response := range results.PhaseResults(phase) {
			fmt.Printf("\n%s's response:\n", response.Model)
			fmt.Println(response.Response)
			fmt.Println(strings.Repeat("-", 40))
		}
	}
}

// runSearch prints history matches and lets the user pick one session
// to view its non-system messages.
func runSearch(history *HistoryManager, keyword, startDate, endDate string) error {
	results, err := history.SearchDebates(keyword, startDate, endDate)
	if err != nil {
		return err
	}

	fmt.Printf("Found %d debate(s):\n", len(results))
	for i, path := range results {
		data, err := history.LoadDebate(path)
		if err != nil {
			fmt.Printf("%d. %s (unreadable: %v)\n", i+1, path, err)
			continue
		}

		input := "N/A"
		for _, msg := range data.Messages {
			if msg.IsInput() {
				input = msg.Content
				break
			}
		}
		fmt.Printf("%d. %s - %s...\n", i+1, data.LastUpdated, truncateRunes(input, 50))
	}

	if len(results) == 0 {
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\nEnter number to view debate (or 'q' to quit): ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}

		choice := strings.TrimSpace(line)
		if strings.EqualFold(choice, "q") {
			return nil
		}

		idx, err := strconv.Atoi(choice)
		if err != nil {
			fmt.Println("Please enter a valid number.")
			continue
		}
		if idx < 1 || idx > len(results) {
			fmt.Println("Invalid number.")
			continue
		}

		data, err := history.LoadDebate(results[idx-1])
		if err != nil {
			fmt.Printf("Error loading debate: %v\n", err)
			continue
		}

		for _, msg := range data.Messages {
			switch {
			case msg.IsSystem():
				// Skip system messages
			case msg.IsInput():
				fmt.Printf("\nUser: %s\n", msg.Content)
			default:
				fmt.Printf("\n%s:\n%s\n", msg.Role, msg.Content)
			}
		}
	}
}
