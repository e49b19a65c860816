package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ppiankov/glosshover/internal/annotate"
	"github.com/ppiankov/glosshover/internal/glossary"
	"github.com/ppiankov/glosshover/internal/linkcheck"
	"github.com/ppiankov/glosshover/internal/llm"
	"github.com/ppiankov/glosshover/internal/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	termsJSON       bool
	termDefinition  string
	termPermalink   string
	termID          string
	draftSubject    string
	draftOut        string
	draftTimeout    time.Duration
	listDefinitions int
	checkBase       string
	checkWorkers    int
)

// termsCmd represents the terms command
var termsCmd = &cobra.Command{
	Use:   "terms",
	Short: "Manage glossary terms",
	Long: `Manage the glossary. Terms are read from --db when set, else --glossary.
Commands that write (add, delete, import) need the SQLite term store (--db).`,
}

var termsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List glossary terms in match order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		src, err := openSource(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()

		terms, err := src.source.Terms(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if termsJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(terms)
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTERM\tLINK\tDEFINITION")
		for _, t := range terms {
			link := "-"
			if t.HasPermalink() {
				link = t.Permalink
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.ID, t.Term, link, annotate.CleanDefinition(t.Definition, listDefinitions))
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "\n%d term(s)\n", len(terms))
		return nil
	},
}

var termsAddCmd = &cobra.Command{
	Use:   "add <term>",
	Short: "Add or update a term in the term store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		t, err := store.Upsert(cmd.Context(), model.Term{
			ID:         termID,
			Term:       args[0],
			Definition: termDefinition,
			Permalink:  termPermalink,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %q (id: %s)\n", t.Term, t.ID)
		return nil
	},
}

var termsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a term from the term store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		t, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), t.ID); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %q (id: %s)\n", t.Term, t.ID)
		return nil
	},
}

var termsImportCmd = &cobra.Command{
	Use:   "import <glossary-file>",
	Short: "Import a YAML or JSON glossary into the term store",
	Long: `Import upserts every term of a glossary file into the term store (--db) in
one transaction. Existing terms keep their position; new terms are appended.
Nothing is written if any entry is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := newLogger(cfg)
		if err != nil {
			return err
		}

		f, err := glossary.NewFileSource(args[0]).Load()
		if err != nil {
			return err
		}

		store, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		n, err := store.Import(cmd.Context(), f.Terms)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Imported %d term(s) into %s\n", n, cfg.Glossary.DB)
		return nil
	},
}

var termsDraftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Draft missing definitions with a language model",
	Long: `Draft asks the configured LLM provider for a short definition of every term
whose definition is empty. Existing definitions are never changed.

With --db the drafts are saved to the term store. With --glossary the
updated glossary is written to --out (default: stdout) for review.

Example:
  OPENAI_API_KEY=sk-... glosshover terms draft --db terms.db --subject "home brewing"
  glosshover terms draft -g glossary.yaml --out glossary.drafted.yaml`,
	Args: cobra.NoArgs,
	RunE: runDraft,
}

var termsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that term permalinks still resolve",
	Long: `Check requests every term permalink (HEAD, falling back to GET) and reports
dead links and redirects. Relative permalinks are resolved against --base and
skipped without it. Exits non-zero when a link is dead.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(termsCmd)
	termsCmd.AddCommand(termsListCmd, termsAddCmd, termsDeleteCmd, termsImportCmd, termsDraftCmd, termsCheckCmd)

	termsCheckCmd.Flags().StringVar(&checkBase, "base", "", "site URL for relative permalinks, e.g. https://example.com")
	termsCheckCmd.Flags().IntVar(&checkWorkers, "concurrency", 10, "number of concurrent requests")

	termsListCmd.Flags().BoolVar(&termsJSON, "json", false, "print terms as JSON")
	termsListCmd.Flags().IntVar(&listDefinitions, "width", 60, "definition column width (0 = full)")

	termsAddCmd.Flags().StringVar(&termID, "id", "", "term id (default: derived from the term)")
	termsAddCmd.Flags().StringVar(&termDefinition, "definition", "", "definition text (may contain markup)")
	termsAddCmd.Flags().StringVar(&termPermalink, "permalink", "", "glossary page URL")

	termsDraftCmd.Flags().StringVar(&draftSubject, "subject", "", "subject area of the glossary, passed to the model")
	termsDraftCmd.Flags().StringVarP(&draftOut, "out", "o", "", "output path for a drafted glossary file (default: stdout)")
	termsDraftCmd.Flags().DurationVar(&draftTimeout, "timeout", 10*time.Minute, "overall timeout")
}

func runDraft(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), draftTimeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("no LLM provider configured: set llm.provider (openai, ollama)")
	}

	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	terms, err := src.source.Terms(ctx)
	if err != nil {
		return err
	}

	drafter := llm.NewDrafter(provider, cfg.LLM.MaxChars, log).WithContext(draftSubject)
	result, draftErr := drafter.FillMissing(ctx, terms)

	if len(result.Drafted) > 0 {
		if err := saveDrafts(ctx, src, result); err != nil {
			return err
		}
	}

	fmt.Fprintf(os.Stderr, "✓ Drafted %d definition(s) with %s (%d tokens)\n",
		len(result.Drafted), provider.Name(), result.Tokens)

	if draftErr != nil {
		return fmt.Errorf("some drafts failed: %w", draftErr)
	}
	return nil
}

func saveDrafts(ctx context.Context, src *termSource, result *llm.DraftResult) error {
	if src.store != nil {
		drafted := make(map[string]bool, len(result.Drafted))
		for _, id := range result.Drafted {
			drafted[id] = true
		}
		for _, t := range result.Terms {
			if !drafted[t.ID] {
				continue
			}
			if _, err := src.store.Upsert(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}

	f := &glossary.File{Render: src.overrides, Terms: result.Terms}
	if draftOut != "" {
		return glossary.WriteFile(draftOut, f)
	}
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to encode glossary: %w", err)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	checker := linkcheck.NewChecker(cfg.HTTP, checkWorkers)
	if checkBase != "" {
		if checker, err = checker.WithBase(checkBase); err != nil {
			return err
		}
	}

	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	terms, err := src.source.Terms(cmd.Context())
	if err != nil {
		return err
	}

	results := checker.Check(cmd.Context(), terms)

	dead := 0
	out := cmd.OutOrStdout()
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(out, "-  %s: %s (relative, use --base)\n", r.Term, r.URL)
		case r.OK && r.RedirectURL != "":
			fmt.Fprintf(out, "→  %s: %s redirects to %s\n", r.Term, r.URL, r.RedirectURL)
		case r.OK:
			fmt.Fprintf(out, "✓  %s: %s\n", r.Term, r.URL)
		default:
			if r.Dead {
				dead++
			}
			reason := r.Error
			if reason == "" {
				reason = fmt.Sprintf("HTTP %d", r.StatusCode)
			}
			fmt.Fprintf(out, "✗  %s: %s (%s)\n", r.Term, r.URL, reason)
		}
	}

	fmt.Fprintf(os.Stderr, "\n%d permalink(s) checked, %d dead\n", len(results), dead)
	if dead > 0 {
		return fmt.Errorf("%d dead permalink(s)", dead)
	}
	return nil
}
