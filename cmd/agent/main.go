// Command agent answers questions about the contract graph. With arguments it answers them as one
// question; without, it reads questions from stdin until "exit".
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/agent"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/app"
	"github.com/theapemachine/mcp-server-contract-graph/pkg/config"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "agent"})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading configuration", "err", err)
	}

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	ctx := context.Background()

	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("starting", "err", err)
	}
	defer application.Close(ctx)

	toolset, err := application.Tools()
	if err != nil {
		logger.Fatal("building tools", "err", err)
	}

	reviewer := agent.New(cfg, toolset, logger)

	if len(os.Args) > 1 {
		ask(ctx, reviewer, strings.Join(os.Args[1:], " "), logger)
		return
	}

	fmt.Println("Example questions:")
	fmt.Println("  - Tell me about contract 1")
	fmt.Println("  - Find contracts for AT&T")
	fmt.Println("  - Get contracts with Price Restrictions but without Insurance")
	fmt.Println("  - Show me contracts mentioning product delivery")
	fmt.Println("  - How many contracts are in the database?")
	fmt.Println("Type 'exit' to quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\nYou: ")
		if !scanner.Scan() {
			return
		}

		question := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(question) {
		case "":
			continue
		case "exit", "quit", "bye":
			return
		}

		ask(ctx, reviewer, question, logger)
	}
}

func ask(ctx context.Context, reviewer *agent.Agent, question string, logger *log.Logger) {
	answer, err := reviewer.Ask(ctx, question)
	if err != nil {
		logger.Error("agent failed", "err", err)
		return
	}
	fmt.Printf("\nAgent: %s\n", answer)
}
