package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"github.com/zer0-x/krunner-zoom/internal/config"
	"github.com/zer0-x/krunner-zoom/internal/log"
	"github.com/zer0-x/krunner-zoom/internal/match"
)

type matchOutput struct {
	Key       string   `json:"key"`
	Text      string   `json:"text"`
	Icon      string   `json:"icon"`
	Kind      int32    `json:"kind"`
	Relevance float64  `json:"relevance"`
	Actions   []string `json:"actions"`
}

func toMatchOutput(results []match.Result) []matchOutput {
	out := make([]matchOutput, 0, len(results))
	for _, r := range results {
		out = append(out, matchOutput{
			Key:       r.Key,
			Text:      r.Text,
			Icon:      r.Icon,
			Kind:      int32(r.Kind),
			Relevance: r.Relevance,
			Actions:   r.Capabilities.IDs(),
		})
	}
	return out
}

func runMatch(args []string) int {
	fs := pflag.NewFlagSet("match", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "Path to configuration file")
	jsonOut := fs.Bool("json", false, "Output in structured JSON format")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Usage: krunner-zoom match [--json] <query...>")
		return 1
	}

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	svc, err := buildService(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer svc.Teardown()

	results := toMatchOutput(svc.Match(context.Background(), strings.Join(fs.Args(), " ")))

	if *jsonOut {
		return printJSON(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No matches.")
		return 0
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTEXT\tACTIONS")
	for _, r := range results {
		key := r.Key
		if key == "" {
			key = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, r.Text, strings.Join(r.Actions, ","))
	}
	_ = tw.Flush()
	return 0
}

func runRun(args []string) int {
	fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
	configPath := fs.StringP("config", "c", "", "Path to configuration file")
	query := fs.StringP("query", "q", "", "Query to match first (default: the keyword alone)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}
	if fs.NArg() < 1 || fs.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "Usage: krunner-zoom run [--query QUERY] <key> [action]")
		return 1
	}
	key := fs.Arg(0)
	action := fs.Arg(1)

	cfg, err := loadConfigForTool(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Load error: %v\n", err)
		return 1
	}
	svc, err := buildService(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer svc.Teardown()

	q := *query
	if q == "" {
		q = cfg.Runner.Keyword
	}

	ctx := context.Background()
	svc.Match(ctx, q)
	if err := svc.Run(ctx, key, action); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// printJSON writes v to stdout as indented JSON and returns the exit code.
func printJSON(v any) int {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render JSON: %v\n", err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

// loadConfigForTool loads the config for a one-shot command. Logs go to
// stderr so stdout stays machine-readable.
func loadConfigForTool(configPath string) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	return cfg, nil
}
