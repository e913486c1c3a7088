package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/deepsearch/internal/config"
	"github.com/crystaldolphin/deepsearch/internal/container"
	"github.com/crystaldolphin/deepsearch/internal/deepsearch"
	"github.com/crystaldolphin/deepsearch/internal/shared/stringutils"
	"github.com/crystaldolphin/deepsearch/internal/tools"
)

var (
	searchStream   bool
	searchNoStream bool
	searchEvents   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Run one DeepSearch query and print the JSON result",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchStream, "stream", true, "Stream the response (default: streamByDefault from config)")
	searchCmd.Flags().BoolVar(&searchNoStream, "no-stream", false, "Wait for the whole response instead of streaming")
	searchCmd.Flags().BoolVar(&searchEvents, "events", false, "Print status and stream events to stderr")
}

// streamOverride resolves --stream and --no-stream. It returns nil when
// neither was given, leaving streamByDefault in charge.
func streamOverride(fs *pflag.FlagSet) (*bool, error) {
	setStream, setNoStream := fs.Changed("stream"), fs.Changed("no-stream")
	stream, _ := fs.GetBool("stream")
	noStream, _ := fs.GetBool("no-stream")
	switch {
	case setStream && setNoStream:
		if stream == !noStream {
			return &stream, nil
		}
		return nil, fmt.Errorf("--stream=%t conflicts with --no-stream=%t", stream, noStream)
	case setStream:
		return &stream, nil
	case setNoStream:
		v := !noStream
		return &v, nil
	}
	return nil, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	c, err := container.New(cfg, nil)
	if err != nil {
		return err
	}
	tool := c.Registry().GetTool(tools.ToolDeepSearch)

	params := map[string]any{"query": strings.Join(args, " ")}
	stream, err := streamOverride(cmd.Flags())
	if err != nil {
		return err
	}
	if stream != nil {
		params["stream"] = *stream
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "%s searching... (this may take several minutes)\n", logo)

	events := make(chan deepsearch.Event, 32)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for ev := range events {
			if searchEvents {
				printEvent(ev)
			}
		}
		return nil
	})

	var out string
	g.Go(func() error {
		defer close(events)
		em := deepsearch.EmitterFunc(func(ctx context.Context, ev deepsearch.Event) error {
			select {
			case events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		ictx := tools.WithInvocation(gctx, tools.InvocationContext{ID: "cli", Emitter: em})
		var err error
		out, err = tool.Execute(ictx, params)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func printEvent(ev deepsearch.Event) {
	switch data := ev.Data.(type) {
	case deepsearch.StatusData:
		fmt.Fprintf(os.Stderr, "  ↳ %s\n", data.Description)
	default:
		raw, _ := json.Marshal(data)
		fmt.Fprintf(os.Stderr, "  · %s\n", stringutils.Truncate(string(raw), 200))
	}
}
