// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/aikernel"
	"github.com/poiesic/aikernel/ai"
	"github.com/poiesic/aikernel/kernel"
	"github.com/poiesic/aikernel/skills/fileio"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	serviceFlag := &cli.StringFlag{
		Name:    "service",
		Aliases: []string{"s"},
		Usage:   "Service id (default service when empty)",
	}
	return &cli.App{
		Name:  "aikernel",
		Usage: "Resolve and call configured AI services",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the service configuration file",
				Value:   "aikernel.yaml",
				EnvVars: []string{"AIKERNEL_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "services",
				Usage:  "List registered services per capability",
				Action: servicesCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Construct every service and report failures",
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent constructions for --check",
						Value: 4,
					},
				},
			},
			{
				Name:      "complete",
				Usage:     "Complete a prompt with a text completion service",
				ArgsUsage: "PROMPT...",
				Action:    completeCommand,
				Flags: []cli.Flag{
					serviceFlag,
					&cli.IntFlag{
						Name:  "max-tokens",
						Usage: "Maximum tokens to generate",
						Value: ai.DefaultCompletionSettings().MaxTokens,
					},
					&cli.Float64Flag{
						Name:  "temperature",
						Usage: "Sampling temperature",
					},
				},
			},
			{
				Name:      "chat",
				Usage:     "Chat with a chat completion service; reads stdin when no message is given",
				ArgsUsage: "[MESSAGE...]",
				Action:    chatCommand,
				Flags: []cli.Flag{
					serviceFlag,
					&cli.StringFlag{
						Name:  "system",
						Usage: "System instructions",
					},
				},
			},
			{
				Name:      "embed",
				Usage:     "Print embeddings for each argument as JSON",
				ArgsUsage: "TEXT...",
				Action:    embedCommand,
				Flags: []cli.Flag{
					serviceFlag,
					&cli.StringFlag{
						Name:  "similar-model",
						Usage: "Instead of printing vectors, list cached texts of this model similar to the first argument",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum similar texts to list",
						Value: 5,
					},
				},
			},
			{
				Name:      "image",
				Usage:     "Generate an image and print its URL",
				ArgsUsage: "DESCRIPTION...",
				Action:    imageCommand,
				Flags: []cli.Flag{
					serviceFlag,
					&cli.IntFlag{Name: "width", Value: 1024},
					&cli.IntFlag{Name: "height", Value: 1024},
				},
			},
			{
				Name:  "file",
				Usage: "Read and write files through the file skill",
				Subcommands: []*cli.Command{
					{
						Name:      "read",
						Usage:     "Print a file",
						ArgsUsage: "PATH",
						Action:    fileReadCommand,
					},
					{
						Name:      "write",
						Usage:     "Write CONTENT (or stdin) to PATH",
						ArgsUsage: "PATH [CONTENT...]",
						Action:    fileWriteCommand,
					},
				},
			},
			cacheCommand(serviceFlag),
			{
				Name:      "run",
				Usage:     "Run a skill function",
				ArgsUsage: "SKILL FUNCTION [INPUT...]",
				Action:    runCommand,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:  "var",
						Usage: "Set a variable as key=value (repeatable)",
					},
				},
			},
		},
	}
}

func openRuntime(c *cli.Context) (*aikernel.Runtime, error) {
	rt, err := aikernel.Open(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to open runtime: %w", err)
	}
	return rt, nil
}

func servicesCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	k := rt.Kernel()
	services := k.Services()
	out := c.App.Writer
	for _, capability := range services.Capabilities() {
		def, hasDefault := services.DefaultName(capability)
		fmt.Fprintf(out, "%s\n", capability)
		for name := range services.ListNames(capability) {
			marker := " "
			if hasDefault && name == def {
				marker = "*"
			}
			fmt.Fprintf(out, "  %s %s\n", marker, name)
		}
		if hasDefault && def == "" {
			fmt.Fprintf(out, "  * (unnamed)\n")
		}
	}
	for _, skill := range k.Skills() {
		fns, _ := k.Functions(skill)
		fmt.Fprintf(out, "skill %s: %s\n", skill, strings.Join(fns, ", "))
	}

	if c.Bool("check") {
		if err := k.Preload(c.Context, c.Int("workers")); err != nil {
			return fmt.Errorf("service check failed: %w", err)
		}
		fmt.Fprintln(out, "all services constructed")
	}
	return nil
}

func completeCommand(c *cli.Context) error {
	prompt := strings.Join(c.Args().Slice(), " ")
	if prompt == "" {
		return fmt.Errorf("prompt is required")
	}
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Kernel().TextCompletion(c.String("service"))
	if err != nil {
		return err
	}
	settings := ai.DefaultCompletionSettings()
	settings.MaxTokens = c.Int("max-tokens")
	settings.Temperature = c.Float64("temperature")

	result, err := svc.Complete(c.Context, prompt, settings)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, result)
	return nil
}

func chatCommand(c *cli.Context) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Kernel().ChatCompletion(c.String("service"))
	if err != nil {
		return err
	}
	history := svc.NewChat(c.String("system"))
	out := c.App.Writer

	if c.NArg() > 0 {
		history.AddUserMessage(strings.Join(c.Args().Slice(), " "))
		reply, err := svc.GenerateMessage(c.Context, history, nil)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, reply)
		return nil
	}

	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		history.AddUserMessage(line)
		reply, err := svc.GenerateMessage(c.Context, history, nil)
		if err != nil {
			return err
		}
		history.AddAssistantMessage(reply)
		fmt.Fprintln(out, reply)
	}
}

func embedCommand(c *cli.Context) error {
	texts := c.Args().Slice()
	if len(texts) == 0 {
		return fmt.Errorf("at least one text is required")
	}
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Kernel().Embedding(c.String("service"))
	if err != nil {
		return err
	}

	if model := c.String("similar-model"); model != "" {
		store := rt.VectorStore()
		if store == nil {
			return fmt.Errorf("similarity search needs cache_dir in the configuration")
		}
		query, err := svc.EmbedText(c.Context, texts[0])
		if err != nil {
			return err
		}
		hits, err := store.FindSimilar(c.Context, model, query, -1, c.Int("limit"))
		if err != nil {
			return err
		}
		for _, hit := range hits {
			fmt.Fprintf(c.App.Writer, "%.4f\t%s\n", hit.Score, hit.Text)
		}
		return nil
	}

	vectors, err := svc.EmbedTexts(c.Context, texts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.App.Writer)
	for i, vec := range vectors {
		if err := enc.Encode(map[string]any{"text": texts[i], "dimensions": len(vec), "vector": vec}); err != nil {
			return err
		}
	}
	return nil
}

func imageCommand(c *cli.Context) error {
	description := strings.Join(c.Args().Slice(), " ")
	if description == "" {
		return fmt.Errorf("description is required")
	}
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	svc, err := rt.Kernel().ImageGeneration(c.String("service"))
	if err != nil {
		return err
	}
	url, err := svc.GenerateImage(c.Context, description, c.Int("width"), c.Int("height"))
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, url)
	return nil
}

func fileReadCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("exactly one path is required")
	}
	return runSkill(c, fileio.SkillName, fileio.ReadFunction, kernel.NewVariables(c.Args().First()))
}

func fileWriteCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("path is required")
	}
	var content string
	if c.NArg() > 1 {
		content = strings.Join(c.Args().Tail(), " ")
	} else {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return err
		}
		content = string(data)
	}
	vars := kernel.NewVariables("").
		Set(fileio.PathVariable, c.Args().First()).
		Set(fileio.ContentVariable, content)
	return runSkill(c, fileio.SkillName, fileio.WriteFunction, vars)
}

func runCommand(c *cli.Context) error {
	if c.NArg() < 2 {
		return fmt.Errorf("skill and function are required")
	}
	args := c.Args().Slice()
	vars := kernel.NewVariables(strings.Join(args[2:], " "))
	for _, kv := range c.StringSlice("var") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid variable %q: want key=value", kv)
		}
		vars.Set(key, value)
	}
	return runSkill(c, args[0], args[1], vars)
}

func runSkill(c *cli.Context, skill, function string, vars *kernel.Variables) error {
	rt, err := openRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Close()

	out, err := rt.Kernel().Run(c.Context, skill, function, vars)
	if err != nil {
		return err
	}
	fmt.Fprint(c.App.Writer, out)
	if !strings.HasSuffix(out, "\n") {
		fmt.Fprintln(c.App.Writer)
	}
	return nil
}

var logLevels = []string{"debug", "info", "warn", "error"}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of %s", levelStr, strings.Join(logLevels, ", "))
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
