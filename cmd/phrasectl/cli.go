package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"html"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/codethatfits/phrasematch/internal/engine"
	"github.com/codethatfits/phrasematch/internal/scrub"
	"github.com/codethatfits/phrasematch/model"
	"github.com/codethatfits/phrasematch/services"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp() *cli.App {
	app := &cli.App{
		Name:    "phrasectl",
		Usage:   "Exact phrase discovery and scrubbing over local collections",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "data-dir", Aliases: []string{"d"}, Value: "./phrase_data", Usage: "Data directory holding the collections"},
		},
		Commands: []*cli.Command{
			scanCmd(),
			scrubCmd(),
			revisionsCmd(),
			restoreCmd(),
			collectionsCmd(),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// scanCmd creates the scan command.
func scanCmd() *cli.Command {
	return &cli.Command{
		Name:  "scan",
		Usage: "Locate exact occurrences of a phrase across a collection",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true, Usage: "Collection name"},
			&cli.StringFlag{Name: "phrase", Aliases: []string{"p"}, Required: true, Usage: "Phrase to locate"},
			&cli.StringFlag{Name: "type", Usage: "Comma-separated doc_type filter"},
			&cli.StringFlag{Name: "status", Usage: "Comma-separated status filter"},
			&cli.IntFlag{Name: "page", Value: 1, Usage: "Result page"},
			&cli.IntFlag{Name: "page-size", Value: 10, Usage: "Documents per page"},
			&cli.BoolFlag{Name: "json", Usage: "Emit the raw result as JSON"},
		},
		Action: func(c *cli.Context) error {
			eng, err := openEngine(c)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = eng.Close() }()

			accessor, err := eng.GetCollection(c.String("collection"))
			if err != nil {
				return outputError(err)
			}

			result, err := accessor.Find(services.FindQuery{
				Phrase:   c.String("phrase"),
				DocTypes: parseList(c.String("type")),
				Statuses: parseList(c.String("status")),
				Page:     c.Int("page"),
				PageSize: c.Int("page-size"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(result)
			}
			printFindResult(result)
			return nil
		},
	}
}

// scrubCmd creates the scrub command.
func scrubCmd() *cli.Command {
	return &cli.Command{
		Name:  "scrub",
		Usage: "Remove or replace every occurrence of a phrase across a collection",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true, Usage: "Collection name"},
			&cli.StringFlag{Name: "phrase", Aliases: []string{"p"}, Required: true, Usage: "Phrase to scrub"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Usage: "Removal mode: text_only|inline_markup|block_wrapper"},
			&cli.StringFlag{Name: "replace", Aliases: []string{"r"}, Usage: "Replacement text (overrides mode)"},
			&cli.StringFlag{Name: "type", Usage: "Comma-separated doc_type filter"},
			&cli.StringFlag{Name: "status", Usage: "Comma-separated status filter"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Skip the confirmation prompt"},
			&cli.BoolFlag{Name: "json", Usage: "Emit the raw result as JSON"},
		},
		Action: func(c *cli.Context) error {
			mode := model.RemovalMode(c.String("mode"))
			if mode != "" && !mode.Valid() {
				return outputError(fmt.Errorf("unknown removal mode '%s'", mode))
			}
			replacement := c.String("replace")
			collection := c.String("collection")
			phrase := c.String("phrase")

			eng, err := openEngine(c)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = eng.Close() }()

			accessor, err := eng.GetCollection(collection)
			if err != nil {
				return outputError(err)
			}

			// Probe for the match count first, then pull every hit in one page.
			probe, err := accessor.Find(services.FindQuery{
				Phrase:   phrase,
				DocTypes: parseList(c.String("type")),
				Statuses: parseList(c.String("status")),
				Page:     1,
				PageSize: 1,
			})
			if err != nil {
				return outputError(err)
			}
			if probe.Total == 0 {
				if c.Bool("json") {
					return outputJSON(&services.ScrubResult{Results: []services.DocumentScrubResult{}})
				}
				fmt.Println("No documents matched.")
				return nil
			}

			full, err := accessor.Find(services.FindQuery{
				Phrase:   phrase,
				DocTypes: parseList(c.String("type")),
				Statuses: parseList(c.String("status")),
				Page:     1,
				PageSize: probe.Total,
			})
			if err != nil {
				return outputError(err)
			}

			// Without an explicit mode or replacement, an active policy for
			// this phrase prescribes the treatment, same as server-side
			// corpus scrubs.
			if mode == "" && replacement == "" {
				if policy, ok := eng.PolicyStore().FindByPhrase(collection, phrase); ok {
					mode = policy.Mode
					replacement = policy.Replacement
					if !c.Bool("json") {
						fmt.Printf("%s policy '%s' applies (mode: %s)\n", color.HiBlackString("-"), policy.Name, policy.Mode)
					}
				}
			}

			if !c.Bool("yes") {
				question := fmt.Sprintf("Scrub %d occurrence(s) across %d document(s) in '%s'?",
					full.TotalOccurrences, full.Total, collection)
				if !confirm(question) {
					fmt.Println("Aborted.")
					return nil
				}
			}

			targets := make([]services.ScrubTarget, 0, len(full.Hits))
			for _, hit := range full.Hits {
				targets = append(targets, services.ScrubTarget{
					DocID:    hit.Document.ID,
					Requests: scrub.BuildRequests(hit.Occurrences, mode, replacement),
				})
			}

			result, err := accessor.Execute(services.ScrubRequest{Phrase: phrase, Targets: targets})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(result)
			}
			printScrubResult(result)
			return nil
		},
	}
}

// revisionsCmd creates the revisions command.
func revisionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "revisions",
		Usage: "List scrub revisions recorded for a document",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true, Usage: "Collection name"},
			&cli.StringFlag{Name: "doc", Required: true, Usage: "Document ID"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum revisions to return"},
			&cli.BoolFlag{Name: "json", Usage: "Emit the revisions as JSON"},
		},
		Action: func(c *cli.Context) error {
			eng, err := openEngine(c)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = eng.Close() }()

			revs, err := eng.ListRevisions(c.String("collection"), c.String("doc"), c.Int("limit"))
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(revs)
			}
			if len(revs) == 0 {
				fmt.Println("No revisions recorded.")
				return nil
			}
			for _, rev := range revs {
				fmt.Printf("%s  %s  %q  removed %d, replaced %d\n",
					rev.ID, rev.CreatedAt.Format(time.RFC3339), rev.Phrase, rev.Removed, rev.Replaced)
			}
			return nil
		},
	}
}

// restoreCmd creates the restore command.
func restoreCmd() *cli.Command {
	return &cli.Command{
		Name:  "restore",
		Usage: "Restore a document to the text it had before a recorded scrub",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "collection", Aliases: []string{"c"}, Required: true, Usage: "Collection name"},
			&cli.StringFlag{Name: "doc", Required: true, Usage: "Document ID"},
			&cli.StringFlag{Name: "revision", Required: true, Usage: "Revision ID to restore"},
			&cli.BoolFlag{Name: "json", Usage: "Emit the restored document as JSON"},
		},
		Action: func(c *cli.Context) error {
			eng, err := openEngine(c)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = eng.Close() }()

			doc, err := eng.RestoreRevision(c.String("collection"), c.String("doc"), c.String("revision"))
			if err != nil {
				return outputError(err)
			}

			if c.Bool("json") {
				return outputJSON(doc)
			}
			fmt.Printf("%s revision '%s' restored for document '%s'\n",
				color.GreenString("✓"), c.String("revision"), doc.ID)
			return nil
		},
	}
}

// collectionsCmd creates the collections command.
func collectionsCmd() *cli.Command {
	return &cli.Command{
		Name:  "collections",
		Usage: "List collections with their document counts",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Emit the list as JSON"},
		},
		Action: func(c *cli.Context) error {
			eng, err := openEngine(c)
			if err != nil {
				return outputError(err)
			}
			defer func() { _ = eng.Close() }()

			names := eng.ListCollections()
			summaries := make([]collectionSummary, 0, len(names))
			for _, name := range names {
				accessor, err := eng.GetCollection(name)
				if err != nil {
					continue
				}
				_, total, err := accessor.ListDocuments(1, 1)
				if err != nil {
					continue
				}
				summaries = append(summaries, collectionSummary{Name: name, Documents: total})
			}

			if c.Bool("json") {
				return outputJSON(summaries)
			}
			if len(summaries) == 0 {
				fmt.Println("No collections.")
				return nil
			}
			for _, s := range summaries {
				fmt.Printf("%-32s %d\n", s.Name, s.Documents)
			}
			return nil
		},
	}
}

// collectionSummary pairs a collection name with its document count.
type collectionSummary struct {
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// openEngine loads the engine over the directory named by the global
// --data-dir flag. Callers own the returned engine and must close it.
func openEngine(c *cli.Context) (*engine.Engine, error) {
	return engine.NewEngine(c.String("data-dir"))
}

// printFindResult renders one find result as per-document occurrence tables.
func printFindResult(result services.FindResult) {
	if result.Total == 0 {
		fmt.Println("No occurrences found.")
		return
	}

	fmt.Printf("%s %d document(s), %d occurrence(s) in %dms\n",
		color.GreenString("✓"), result.Total, result.TotalOccurrences, result.Took)
	for _, hit := range result.Hits {
		fmt.Printf("\n%s  %s\n", color.CyanString(hit.Document.ID), hit.Document.Title)
		for _, occ := range hit.Occurrences {
			fmt.Printf("  %-7s %6d  %-13s %s\n",
				occ.Field, occ.Offset, color.HiBlackString("%s", string(occ.Wrapping)), renderSnippet(occ.Snippet))
		}
	}
}

// printScrubResult renders per-document scrub outcomes.
func printScrubResult(result *services.ScrubResult) {
	for _, doc := range result.Results {
		switch doc.Outcome {
		case services.OutcomeApplied:
			fmt.Printf("%s %s  removed %d, replaced %d  (revision %s)\n",
				color.GreenString("✓"), doc.DocID, doc.Removed, doc.Replaced, doc.RevisionID)
		case services.OutcomeNoChanges:
			fmt.Printf("%s %s  all offsets stale, nothing written\n",
				color.HiBlackString("-"), doc.DocID)
		default:
			fmt.Printf("%s %s  %s\n", color.RedString("✗"), doc.DocID, doc.Error)
		}
	}
	fmt.Printf("\n%d modified, %d skipped, %d failed in %dms\n",
		result.DocsModified, result.DocsSkipped, result.DocsFailed, result.Took)
}

var markPattern = regexp.MustCompile(`<mark>(.*?)</mark>`)

// renderSnippet converts a snippet into terminal text: the highlighted span
// is colored and the HTML escaping is undone. fatih/color drops the color
// codes when stdout is not a terminal.
func renderSnippet(snippet string) string {
	colored := markPattern.ReplaceAllStringFunc(snippet, func(m string) string {
		inner := strings.TrimSuffix(strings.TrimPrefix(m, "<mark>"), "</mark>")
		return color.HiYellowString("%s", inner)
	})
	return html.UnescapeString(colored)
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	return cli.Exit(err.Error(), 1)
}

// confirm prompts on stdout and reads a yes or no answer from stdin.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// parseList splits a comma-separated flag value, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			values = append(values, v)
		}
	}
	return values
}
