package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/coolbeans/sejmtrans/pkg/affiliation"
	"github.com/coolbeans/sejmtrans/pkg/config"
	"github.com/coolbeans/sejmtrans/pkg/logging"
	"github.com/coolbeans/sejmtrans/pkg/occurrence"
	"github.com/coolbeans/sejmtrans/pkg/query"
	"github.com/coolbeans/sejmtrans/pkg/transcript"
)

var version = "0.1.0"

// cliEnv is the state shared by all subcommands once the root command has
// loaded the configuration.
type cliEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	env := &cliEnv{logger: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "sejmtrans",
		Short: "Polish Sejm transcript analysis",
		Long: `Sejmtrans analyses Polish Sejm session transcripts.

It resolves speaker labels to deputies, assigns party affiliations as of
the session date, splits utterances into sentences and counts phrase
occurrences with their conversational context.

Configuration is read from sejmtrans.yaml (or --config), .env files and
SEJMTRANS_* environment variables; flags override all of them.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = env.logger.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Configuration file (default: ./sejmtrans.yaml if present)")
	flags.String("registry", "", "Affiliation registry JSON file")
	flags.String("transcripts", "", "Directory of transcript XML files")
	flags.String("log-level", "", "Log level: debug, info, warn, error")
	flags.String("log-file", "", "Write logs to this file instead of stderr")
	flags.String("format", "", "Output format: text, json, tsv, xlsx")
	flags.StringP("output", "o", "", "Output file (default: stdout)")

	rootCmd.AddCommand(countCmd(env))
	rootCmd.AddCommand(affiliationCmd(env))
	rootCmd.AddCommand(speakersCmd(env))
	rootCmd.AddCommand(queryCmd(env))
	rootCmd.AddCommand(registryCmd(env))
	rootCmd.AddCommand(configCmd(env))

	return rootCmd
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (e *cliEnv) setup(cmd *cobra.Command) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath, config.DefaultEnvFiles)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	overrides := []struct {
		flag  string
		value *string
	}{
		{"registry", &cfg.Registry},
		{"transcripts", &cfg.Transcripts},
		{"log-level", &cfg.Log.Level},
		{"log-file", &cfg.Log.File},
		{"format", &cfg.Output.Format},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.value, _ = cmd.Flags().GetString(o.flag)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	e.cfg = cfg
	e.logger = logger
	return nil
}

func (e *cliEnv) loadRegistry() (*affiliation.Registry, error) {
	registry, err := affiliation.LoadRegistry(e.cfg.Registry, affiliation.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load registry: %w", err)
	}
	return registry, nil
}

func (e *cliEnv) newAssigner() (*affiliation.Assigner, error) {
	registry, err := e.loadRegistry()
	if err != nil {
		return nil, err
	}
	return affiliation.NewAssigner(affiliation.NewResolver(registry), e.logger), nil
}

// loadTranscripts loads the given files and directories, or the configured
// transcript directory when none are given.
func (e *cliEnv) loadTranscripts(paths []string) ([]*transcript.Transcript, error) {
	if len(paths) == 0 {
		paths = []string{e.cfg.Transcripts}
	}

	var transcripts []*transcript.Transcript
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load transcripts: %w", err)
		}
		if info.IsDir() {
			loaded, err := transcript.LoadDirectory(path, e.logger)
			if err != nil {
				return nil, fmt.Errorf("failed to load transcripts: %w", err)
			}
			transcripts = append(transcripts, loaded...)
			continue
		}
		t, err := transcript.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load transcript: %w", err)
		}
		transcripts = append(transcripts, t)
	}
	return transcripts, nil
}

// openOutput returns the --output file, or the command's stdout when unset.
func openOutput(cmd *cobra.Command) (io.Writer, func() error, error) {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return cmd.OutOrStdout(), func() error { return nil }, nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}

func requireOutputFor(cmd *cobra.Command, format string) error {
	if output, _ := cmd.Flags().GetString("output"); output == "" {
		return fmt.Errorf("--output is required for %s output", format)
	}
	return nil
}

func countCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count [transcript-file-or-dir...]",
		Short: "Count phrase occurrences in transcripts",
		Long: `Find every whole-word, case-insensitive occurrence of the given phrases
in utterances, reactions and interruptions, with the sentence it occurs
in, the previous sentence and its speaker.

Phrases come from --phrase and from named lists (--list), defined in the
configuration under phrase_lists or in a --lists-file YAML file.

Examples:
  sejmtrans count --phrase hańba --phrase hańby
  sejmtrans count --list hanba --lists-file phrases.yaml
  sejmtrans count --phrase "polski rząd" --format xlsx -o rzad.xlsx
  sejmtrans count --list hanba --summary`,
		RunE: func(cmd *cobra.Command, args []string) error {
			phrases, _ := cmd.Flags().GetStringArray("phrase")
			listNames, _ := cmd.Flags().GetStringSlice("list")
			listsFile, _ := cmd.Flags().GetString("lists-file")
			summary, _ := cmd.Flags().GetBool("summary")

			if len(listNames) > 0 {
				lists := occurrence.PhraseLists{}
				lists.Merge(env.cfg.PhraseLists)
				if listsFile != "" {
					fromFile, err := occurrence.LoadPhraseLists(listsFile)
					if err != nil {
						return fmt.Errorf("failed to load phrase lists: %w", err)
					}
					lists.Merge(fromFile)
				}
				listed, err := lists.Resolve(listNames...)
				if err != nil {
					return err
				}
				phrases = append(phrases, listed...)
			}

			scanner, err := occurrence.NewScanner(phrases, occurrence.WithLogger(env.logger))
			if err != nil {
				return fmt.Errorf("%w (use --phrase or --list)", err)
			}

			format, err := occurrence.ParseFormat(env.cfg.Output.Format)
			if err != nil {
				return err
			}
			if format == occurrence.FormatXLSX && !summary {
				if err := requireOutputFor(cmd, "xlsx"); err != nil {
					return err
				}
			}

			transcripts, err := env.loadTranscripts(args)
			if err != nil {
				return err
			}
			occurrences, err := scanner.RunAll(transcripts)
			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			w, closeOutput, err := openOutput(cmd)
			if err != nil {
				return err
			}
			if summary {
				err = writeSpeakerCounts(w, occurrence.CountBySpeaker(occurrences))
			} else {
				err = occurrence.Write(w, format, occurrences)
			}
			if err != nil {
				closeOutput()
				return fmt.Errorf("failed to write occurrences: %w", err)
			}
			return closeOutput()
		},
	}

	cmd.Flags().StringArray("phrase", nil, "Phrase to count (repeatable)")
	cmd.Flags().StringSlice("list", nil, "Named phrase list to count (repeatable)")
	cmd.Flags().String("lists-file", "", "YAML file with additional phrase lists")
	cmd.Flags().Bool("summary", false, "Print occurrence counts per speaker instead of occurrences")

	return cmd
}

func writeSpeakerCounts(w io.Writer, counts []occurrence.SpeakerCount) error {
	for _, c := range counts {
		speaker := c.Speaker
		if speaker == "" {
			speaker = "[reaction]"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\n", c.Count, speaker); err != nil {
			return err
		}
	}
	return nil
}

func affiliationCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "affiliation [transcript-file-or-dir...]",
		Short: "Group speeches by the speaker's party affiliation",
		Long: `Resolve every non-chair speaker to a registry deputy, assign the club
they belonged to on the session date and collect consecutive speech text
per party.

Output is JSON, or one worksheet per party with --format xlsx.

Examples:
  sejmtrans affiliation
  sejmtrans affiliation --party KO --party PiS -o entries.json
  sejmtrans affiliation --format xlsx -o entries.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parties, _ := cmd.Flags().GetStringSlice("party")

			xlsx := env.cfg.Output.Format == string(occurrence.FormatXLSX)
			if xlsx {
				if err := requireOutputFor(cmd, "xlsx"); err != nil {
					return err
				}
			}

			assigner, err := env.newAssigner()
			if err != nil {
				return err
			}
			transcripts, err := env.loadTranscripts(args)
			if err != nil {
				return err
			}
			entries, err := assigner.AffiliationToEntries(transcripts, parties)
			if err != nil {
				return fmt.Errorf("affiliation assignment failed: %w", err)
			}

			w, closeOutput, err := openOutput(cmd)
			if err != nil {
				return err
			}
			if xlsx {
				err = affiliation.WriteEntriesXLSX(w, entries)
			} else {
				err = affiliation.WriteEntriesJSON(w, entries)
			}
			if err != nil {
				closeOutput()
				return fmt.Errorf("failed to write entries: %w", err)
			}

			env.logger.Info("Wrote affiliation entries",
				zap.Strings("parties", affiliation.Parties(entries)),
			)
			return closeOutput()
		},
	}

	cmd.Flags().StringSlice("party", nil, "Only keep these parties (repeatable)")

	return cmd
}

func speakersCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speakers [transcript-file-or-dir...]",
		Short: "List speaker labels with their resolved names and affiliations",
		Long: `List every distinct speaker label (speeches and interruptions) with the
affiliations it received across all transcripts and its canonical registry
name. Unresolved labels get <UNK> and fuzzy-matched registry suggestions.

Output is tab-separated: speaker_name, affiliations, canon_name, suggestions.

Examples:
  sejmtrans speakers
  sejmtrans speakers --suggestions 5 -o speakers.tsv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("suggestions")

			assigner, err := env.newAssigner()
			if err != nil {
				return err
			}
			transcripts, err := env.loadTranscripts(args)
			if err != nil {
				return err
			}
			records, err := assigner.SpeakerAffiliations(transcripts)
			if err != nil {
				return fmt.Errorf("speaker listing failed: %w", err)
			}

			w, closeOutput, err := openOutput(cmd)
			if err != nil {
				return err
			}
			if err := writeSpeakerRecords(w, records, assigner.Resolver(), limit); err != nil {
				closeOutput()
				return fmt.Errorf("failed to write speakers: %w", err)
			}

			summary := affiliation.Summarize(records)
			env.logger.Info("Speaker summary",
				zap.Int("unique_speakers", summary.Total),
				zap.Int("without_affiliation", summary.WithoutAffiliation),
				zap.Int("with_affiliation", summary.WithAffiliation),
				zap.Int("with_multiple_affiliations", summary.WithMultiple),
			)
			return closeOutput()
		},
	}

	cmd.Flags().Int("suggestions", 3, "Registry names suggested for unresolved labels (0 disables)")

	return cmd
}

const unknownName = "<UNK>"

func writeSpeakerRecords(w io.Writer, records []*affiliation.SpeakerRecord, resolver *affiliation.Resolver, limit int) error {
	writer := csv.NewWriter(w)
	writer.Comma = '\t'

	if err := writer.Write([]string{"speaker_name", "affiliations", "canon_name", "suggestions"}); err != nil {
		return err
	}
	for _, rec := range records {
		canon := rec.CanonName
		var suggestions []string
		if canon == "" {
			canon = unknownName
			suggestions = resolver.Suggest(rec.SpeakerName, limit)
		}
		row := []string{
			rec.SpeakerName,
			strings.Join(rec.Affiliations, ","),
			canon,
			strings.Join(suggestions, "; "),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func queryCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query [transcript-file-or-dir...]",
		Short: "Dump transcript fields",
		Long: `Dump selected transcript fields in document order, one value per line,
for further processing with standard text tools.

Fields: ` + query.FieldNames() + `

Examples:
  sejmtrans query --what speech_speaker | sort | uniq -c
  sejmtrans query --what utt_interrupt --what utt_interrupt_by --table
  sejmtrans query --what utt_norm --party KO --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			what, _ := cmd.Flags().GetStringSlice("what")
			parties, _ := cmd.Flags().GetStringSlice("party")
			table, _ := cmd.Flags().GetBool("table")

			fields, err := query.ParseFields(what)
			if err != nil {
				return err
			}

			format := query.OutputFormat(env.cfg.Output.Format)
			if table {
				format = query.FormatTable
			}
			if format == query.OutputFormat(occurrence.FormatXLSX) {
				return fmt.Errorf("unsupported format for query: %s", format)
			}

			var opts []query.ExecutorOption
			opts = append(opts, query.WithLogger(env.logger))
			if len(parties) > 0 {
				assigner, err := env.newAssigner()
				if err != nil {
					return err
				}
				opts = append(opts, query.WithParties(assigner, parties))
			}

			transcripts, err := env.loadTranscripts(args)
			if err != nil {
				return err
			}
			result, err := query.NewExecutor(transcripts, opts...).Execute(fields)
			if err != nil {
				return fmt.Errorf("query failed: %w", err)
			}

			output, err := result.Format(format)
			if err != nil {
				return err
			}

			w, closeOutput, err := openOutput(cmd)
			if err != nil {
				return err
			}
			if _, err := io.WriteString(w, output); err != nil {
				closeOutput()
				return err
			}
			return closeOutput()
		},
	}

	cmd.Flags().StringSlice("what", nil, "Field to dump (repeatable): "+query.FieldNames())
	cmd.Flags().StringSlice("party", nil, "Only dump speakers of these parties (repeatable)")
	cmd.Flags().Bool("table", false, "Render as an aligned table")

	return cmd
}

func registryCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect and update the affiliation registry",
		Long: `Inspect and update the JSON registry of deputies and their club
memberships.

Examples:
  sejmtrans registry stats
  sejmtrans registry update --active poslowie.html --deactivated wygasle.html -o sejm.json`,
	}

	cmd.AddCommand(registryStatsCmd(env))
	cmd.AddCommand(registryUpdateCmd(env))

	return cmd
}

func registryStatsCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show registry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := env.loadRegistry()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registry: %s\n", registry.Source())
			fmt.Fprintf(out, "Persons: %d\n", registry.Count(false))
			fmt.Fprintf(out, "Serving today: %d\n", registry.Count(true))

			clubs := make(map[string]int)
			for _, p := range registry.Persons() {
				if club, ok := p.Club(); ok {
					clubs[club]++
				}
			}
			if len(clubs) == 0 {
				return nil
			}

			names := make([]string, 0, len(clubs))
			for club := range clubs {
				names = append(names, club)
			}
			sort.Strings(names)

			fmt.Fprintln(out, "\nClubs:")
			for _, club := range names {
				fmt.Fprintf(out, "  %-16s %d\n", club, clubs[club])
			}
			return nil
		},
	}
}

func registryUpdateCmd(env *cliEnv) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Merge sejm.gov.pl deputy listings into the registry",
		Long: `Merge the saved HTML pages of serving and deactivated deputies from
sejm.gov.pl into the registry. Dates that the listings do not state are
written as TODO_* markers for manual review.

The updated registry is written to --output (stdout by default).

Example:
  sejmtrans registry update --active poslowie.html --deactivated wygasle.html -o sejm.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			activePage, _ := cmd.Flags().GetString("active")
			deactivatedPage, _ := cmd.Flags().GetString("deactivated")

			if activePage == "" && deactivatedPage == "" {
				return fmt.Errorf("--active or --deactivated is required")
			}

			var listed []affiliation.ListedDeputy
			pages := []struct {
				path   string
				active bool
			}{
				{activePage, true},
				{deactivatedPage, false},
			}
			for _, page := range pages {
				if page.path == "" {
					continue
				}
				deputies, err := affiliation.ParseDeputyListFile(page.path, page.active)
				if err != nil {
					return fmt.Errorf("failed to parse deputy list: %w", err)
				}
				listed = append(listed, deputies...)
			}

			registry, err := env.loadRegistry()
			if err != nil {
				return err
			}
			report, err := registry.Merge(listed)
			if err != nil {
				return fmt.Errorf("registry update failed: %w", err)
			}

			env.logger.Info("Registry updated",
				zap.Strings("added", report.Added),
				zap.Strings("deactivated", report.Deactivated),
				zap.Strings("club_changed", report.ClubChanged),
				zap.Int("missing", len(report.Missing)),
			)

			w, closeOutput, err := openOutput(cmd)
			if err != nil {
				return err
			}
			if err := registry.WriteJSON(w); err != nil {
				closeOutput()
				return err
			}
			return closeOutput()
		},
	}

	cmd.Flags().String("active", "", "Saved HTML listing of serving deputies")
	cmd.Flags().String("deactivated", "", "Saved HTML listing of deputies whose mandate expired")

	return cmd
}

func configCmd(env *cliEnv) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.cfg.Encode(cmd.OutOrStdout())
		},
	}
}
