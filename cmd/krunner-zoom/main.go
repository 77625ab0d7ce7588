package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

var (
	version   = "0.1.0-dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	os.Exit(runCLI(os.Args[1:]))
}

func runCLI(cliArgs []string) int {
	// KRunner's D-Bus activation starts the binary without arguments.
	if len(cliArgs) < 1 {
		return runServe(nil)
	}

	cmd := cliArgs[0]
	args := cliArgs[1:]

	if cmd == "--version" {
		return runVersion(args)
	}

	switch cmd {
	case "serve":
		if hasHelpFlag(args) {
			printServeHelp()
			return 0
		}
		return runServe(args)
	case "match":
		if hasHelpFlag(args) {
			printMatchHelp()
			return 0
		}
		return runMatch(args)
	case "run":
		if hasHelpFlag(args) {
			printRunHelp()
			return 0
		}
		return runRun(args)
	case "doctor":
		if hasHelpFlag(args) {
			printDoctorHelp()
			return 0
		}
		return runDoctor(args)
	case "config":
		return runConfigNoun(args)
	case "version":
		return runVersion(args)
	case "help", "--help", "-h":
		printUsage()
		return 0

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		return 1
	}
}

type versionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

func runVersion(args []string) int {
	fs := pflag.NewFlagSet("version", pflag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "Output version metadata as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Flag error: %v\n", err)
		return 1
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "Usage: krunner-zoom version [--json]")
		return 1
	}

	info := currentVersionInfo()

	if *jsonOut {
		return printJSON(info)
	}

	fmt.Printf("krunner-zoom %s\n", info.Version)
	fmt.Printf("commit: %s\n", info.Commit)
	fmt.Printf("built_at: %s\n", info.BuildTime)
	return 0
}

func currentVersionInfo() versionInfo {
	info := versionInfo{
		Version:   strings.TrimSpace(version),
		Commit:    "unknown",
		BuildTime: "unknown",
	}

	if info.Version == "" {
		info.Version = "0.0.0-dev"
	}

	resolvedCommit := strings.TrimSpace(gitCommit)
	if resolvedCommit == "" || resolvedCommit == "unknown" {
		resolvedCommit = strings.TrimSpace(readBuildSetting("vcs.revision"))
	}
	if resolvedCommit != "" {
		info.Commit = shortenCommit(resolvedCommit)
	}

	resolvedBuildTime := strings.TrimSpace(buildDate)
	if resolvedBuildTime == "" || resolvedBuildTime == "unknown" {
		resolvedBuildTime = strings.TrimSpace(readBuildSetting("vcs.time"))
	}
	if normalizedBuildTime, ok := normalizeBuildTimeUTC(resolvedBuildTime); ok {
		info.BuildTime = normalizedBuildTime
	}

	return info
}

func shortenCommit(commit string) string {
	if len(commit) <= 12 {
		return commit
	}
	return commit[:12]
}

func normalizeBuildTimeUTC(raw string) (string, bool) {
	if raw == "" || raw == "unknown" {
		return "", false
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return "", false
	}

	return t.UTC().Format(time.RFC3339), true
}

func readBuildSetting(key string) string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range info.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}

func printUsage() {
	fmt.Print(`krunner-zoom - KRunner plugin for joining Zoom meetings

Usage:
  krunner-zoom [command] [flags]

Commands:
  serve             Register the runner on the session bus (default)
  match <query>     Print what KRunner would show for a query
  run <key> [act]   Open or copy a meeting from the command line
  doctor            Check config, meetings file, opener and clipboard
  config show       Print the resolved configuration
  config get <path> Print one configuration value
  config set <p> <v> Change a configuration value
  version           Show version information
  help              Show this help message

Meetings are read from ~/.zoom_meetings_runner:

  [meeting_standup]
  name = Daily Standup
  id = 1234567890
  passcode = secret

Use 'krunner-zoom <command> --help' for command flags.
`)
}

func printServeHelp() {
	fmt.Println("Usage: krunner-zoom serve [--config PATH]")
	fmt.Println("Claim the runner's bus name and answer KRunner until SIGINT/SIGTERM.")
}

func printMatchHelp() {
	fmt.Println("Usage: krunner-zoom match [--config PATH] [--json] <query...>")
	fmt.Println("Run one query against the meetings file, e.g. 'krunner-zoom match zm standup'.")
}

func printRunHelp() {
	fmt.Println("Usage: krunner-zoom run [--config PATH] [--query QUERY] <key> [copy-id|copy-passcode|copy-uri]")
	fmt.Println("Without an action the meeting is opened. Use --query 'zm 123' to act on a typed id (key temp_meeting).")
}

func printDoctorHelp() {
	fmt.Println("Usage: krunner-zoom doctor [--config PATH] [--json]")
	fmt.Println("Exit status is 1 when the runner cannot work.")
}

func isHelpToken(token string) bool {
	return token == "help" || token == "--help" || token == "-h"
}

func hasHelpFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}
