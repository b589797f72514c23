package commands

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/barista/internal/brewer"
	"github.com/dyluth/barista/internal/catalog"
	"github.com/dyluth/barista/internal/config"
	"github.com/dyluth/barista/internal/doctor"
	"github.com/dyluth/barista/internal/intent"
	"github.com/dyluth/barista/internal/llm"
	"github.com/dyluth/barista/internal/orchestrator"
	"github.com/dyluth/barista/internal/printer"
	"github.com/dyluth/barista/internal/sommelier"
	"github.com/dyluth/barista/pkg/blackboard"
)

var chatEphemeral bool

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation with the assistant",
	Long: `Start the chat REPL. Each line you type is one conversation turn;
the agents reply through the shared blackboard.

Exit with "exit", "quit" or Ctrl-D. The conversation state lives in Redis
under the configured session, so quitting and returning resumes where you
left off.

Examples:
  # Chat with the default session
  barista chat

  # A separate session for experimenting
  BARISTA_SESSION=lab barista chat

  # A throwaway session, wiped on exit
  barista chat --ephemeral`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatEphemeral, "ephemeral", false, "Use a throwaway session and wipe it on exit")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	engine, bb, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer bb.Close()

	if chatEphemeral {
		defer func() {
			if err := bb.ResetSession(context.Background()); err != nil {
				log.Printf("[CLI] failed to wipe ephemeral session: %v", err)
			}
		}()
	}

	printer.Info("Barista ready (session %q). Describe a taste problem, name a bean, or ask for a recommendation.\n", bb.Session())
	printer.Info("Type \"exit\" to leave.\n\n")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		printer.Prompt()
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		replies, err := engine.Turn(ctx, line)
		if err != nil {
			printer.Warning("turn failed: %v\n", err)
			continue
		}
		for _, reply := range replies {
			printer.Assistant(reply.Content)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	printer.Println("Goodbye.")
	return nil
}

// buildEngine wires the store, catalog, collaborator and agents per the
// configuration. The Gemini collaborator is used when an API key is present;
// otherwise the rule-based offline collaborator takes over.
func buildEngine(ctx context.Context) (*orchestrator.Engine, *blackboard.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, printer.Error(
			"configuration error",
			err.Error(),
			[]string{"Check the syntax of " + configPath},
		)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, printer.Error(
			"invalid redis URL",
			err.Error(),
			[]string{"Set redis_url in " + configPath + " or BARISTA_REDIS_URL, e.g. redis://localhost:6379"},
		)
	}

	session := cfg.Session
	if chatEphemeral {
		session = "ephemeral-" + uuid.NewString()
	}

	bb, err := blackboard.NewClient(redisOpts, session)
	if err != nil {
		return nil, nil, printer.Error("failed to create store client", err.Error(), nil)
	}
	if err := bb.Ping(ctx); err != nil {
		bb.Close()
		return nil, nil, printer.Error(
			"cannot reach Redis",
			err.Error(),
			[]string{
				"Start a local Redis: docker run -d -p 6379:6379 redis:7",
				"Point BARISTA_REDIS_URL at a running instance",
			},
		)
	}

	cat := catalog.Load(cfg.DatasetDir)

	var svc llm.Service
	if key := cfg.APIKey(); key != "" {
		gemini, err := llm.NewGeminiService(ctx, key, cfg.Gemini.Model)
		if err != nil {
			log.Printf("[CLI] gemini unavailable, using offline collaborator: %v", err)
			svc = llm.NewRuleBasedService()
		} else {
			svc = gemini
		}
	} else {
		log.Printf("[CLI] no %s set, using offline collaborator", cfg.Gemini.APIKeyEnv)
		svc = llm.NewRuleBasedService()
	}

	engine := orchestrator.NewEngine(bb,
		intent.NewAgent(bb, cat, intent.NewKeywordClassifier()),
		sommelier.NewAgent(bb, cat, svc),
		brewer.NewAgent(bb, cat, svc),
		doctor.NewAgent(bb, cat, svc),
	)
	return engine, bb, nil
}
