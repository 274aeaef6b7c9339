package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/screenager/nertag/internal/engine"
	"github.com/screenager/nertag/internal/feature"
	"github.com/screenager/nertag/internal/inspect"
	"github.com/screenager/nertag/internal/sentsplit"
	"github.com/screenager/nertag/internal/tokenize"
	"github.com/screenager/nertag/internal/watchtag"
)

var defaultModelPath = "./model.bin"

func main() {
	root := &cobra.Command{
		Use:   "nertag",
		Short: "Multi-stage BILOU named-entity tagger",
		Long:  "nertag — offline named-entity recognition over a trained BILOU model artifact.",
	}

	var cfg struct {
		ModelPath string `toml:"model-path"`
	}
	if b, err := os.ReadFile(".nertag.toml"); err == nil {
		if err := toml.Unmarshal(b, &cfg); err == nil && cfg.ModelPath != "" {
			defaultModelPath = cfg.ModelPath
		}
	}

	var modelPath string
	root.PersistentFlags().StringVar(&modelPath, "model", defaultModelPath, "path to a trained model artifact")

	loadEngine := func() (*engine.Engine, error) {
		fmt.Fprint(os.Stderr, "Loading model… ")
		raw, err := os.ReadFile(modelPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "")
			return nil, fmt.Errorf("read model: %w", err)
		}
		eng, err := engine.Load(raw)
		if err != nil {
			fmt.Fprintln(os.Stderr, "")
			return nil, fmt.Errorf("load model: %w", err)
		}
		fmt.Fprintln(os.Stderr, "ready.")
		return eng, nil
	}

	// ---- nertag tag [file] --------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "tag [file]",
		Short: "Tag text from a file (or stdin) and print a CoNLL-ish span dump",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := loadEngine()
			if err != nil {
				return err
			}

			var data []byte
			if len(args) == 1 {
				b, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				data = b
			} else {
				b, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
				data = b
			}

			tok := tokenize.New()
			for _, sentence := range sentsplit.Split(string(data)) {
				tokens := tok.Tokens(sentence)
				entities := eng.Recognize(tokens)
				printSpans(tokens, entities)
			}
			return nil
		},
	})

	// ---- nertag types --------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "types",
		Short: "List the entity types a model recognises",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := loadEngine()
			if err != nil {
				return err
			}
			for _, name := range eng.EntityTypes() {
				fmt.Println(name)
			}
			return nil
		},
	})

	// ---- nertag watch <dir> [dir...] -----------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "watch <dir> [dir...]",
		Short: "Watch directories for .txt file changes and re-tag them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := loadEngine()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			w, err := watchtag.New(eng)
			if err != nil {
				return err
			}

			done := make(chan struct{})
			go func() {
				<-ctx.Done()
				close(done)
			}()

			for _, dir := range args {
				go func(d string) {
					if err := w.Watch(d, done); err != nil {
						fmt.Fprintf(os.Stderr, "watch error %s: %v\n", d, err)
					}
				}(dir)
			}
			<-done
			return nil
		},
	})

	// ---- nertag inspect -------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "inspect",
		Short: "Launch an interactive BubbleTea sentence tagger",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := loadEngine()
			if err != nil {
				return err
			}
			m := inspect.New(eng)
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	})

	// ---- nertag bench ---------------------------------------------------------
	root.AddCommand(&cobra.Command{
		Use:   "bench",
		Short: "Benchmark tokenisation and recognition speed on this machine",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := loadEngine()
			if err != nil {
				return err
			}
			tok := tokenize.New()

			texts := []struct {
				label string
				text  string
			}{
				{"short (9 words)  ", "the quick brown fox jumps over the lazy dog"},
				{"medium (50 words)", strings.Repeat("the quick brown fox jumps ", 10)},
				{"long (180 words) ", strings.Repeat("the quick brown fox jumps over the lazy dog. ", 20)},
			}

			fmt.Printf("\n%-20s  %10s  %10s  %10s\n", "text size", "tokenize", "recognize", "total")
			fmt.Println(strings.Repeat("─", 55))
			for _, tc := range texts {
				t0 := time.Now()
				tokens := tok.Tokens(tc.text)
				t1 := time.Now()
				eng.Recognize(tokens)
				t2 := time.Now()
				fmt.Printf("%-20s  %10s  %10s  %10s\n", tc.label,
					t1.Sub(t0).Round(time.Microsecond),
					t2.Sub(t1).Round(time.Microsecond),
					t2.Sub(t0).Round(time.Microsecond))
			}
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// printSpans prints one line per token in a CoNLL-ish `form\tlabel`
// debug format, where label is O or the BILOU-reconstructed B-/I-/L-/U-
// prefixed entity type — plain-text output only, per the out-of-scope
// formatting boundary.
func printSpans(tokens []feature.Token, entities []feature.Entity) {
	labels := make([]string, len(tokens))
	for i := range labels {
		labels[i] = "O"
	}
	for _, e := range entities {
		for i := 0; i < e.Length && e.Start+i < len(tokens); i++ {
			switch {
			case e.Length == 1:
				labels[e.Start+i] = "U-" + e.Type
			case i == 0:
				labels[e.Start+i] = "B-" + e.Type
			case i == e.Length-1:
				labels[e.Start+i] = "L-" + e.Type
			default:
				labels[e.Start+i] = "I-" + e.Type
			}
		}
	}
	for i, tok := range tokens {
		fmt.Printf("%s\t%s\n", tok.Form, labels[i])
	}
	fmt.Println()
}
