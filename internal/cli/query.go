package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"travel-rag/internal/adapter/rag_http"

	"github.com/spf13/cobra"
)

type filterFlags struct {
	country  string
	category string
	alpha    float64
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.country, "country", "", "restrict to a destination country")
	cmd.Flags().StringVar(&f.category, "category", "", "restrict to a category, e.g. visa_requirements")
	cmd.Flags().Float64Var(&f.alpha, "alpha", -1, "hybrid weight from 0 (lexical) to 1 (semantic); server default when unset")
}

func (f *filterFlags) apply(country, category **string, alpha **float64) {
	if f.country != "" {
		*country = &f.country
	}
	if f.category != "" {
		*category = &f.category
	}
	if f.alpha >= 0 {
		*alpha = &f.alpha
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		filters filterFlags
		topK    int
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid search without generating an answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rag_http.SearchRequest{Query: strings.Join(args, " ")}
			if topK > 0 {
				req.TopK = &topK
			}
			filters.apply(&req.Country, &req.Category, &req.HybridAlpha)

			out, err := a.client.Search(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a, out)
			}

			if out.TotalResults == 0 {
				a.printer.Warning("no results for %q", out.Query)
				return nil
			}
			rows := make([][]string, len(out.Results))
			for i, r := range out.Results {
				rows[i] = []string{strconv.Itoa(r.Rank), fmt.Sprintf("%.3f", r.Score), r.ID, r.Title, r.Country, r.Category}
			}
			if err := a.printer.Table([]string{"rank", "score", "id", "title", "country", "category"}, rows); err != nil {
				return err
			}
			a.printer.Confidence("confidence", out.ConfidenceScore)
			a.printer.Plain("%d results in %.3fs", out.TotalResults, out.ProcessingTime)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (1-20)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func newAskCmd(a *app) *cobra.Command {
	var (
		filters    filterFlags
		maxResults int
		stream     bool
		noSources  bool
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the travel assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := rag_http.AnswerRequest{Query: strings.Join(args, " ")}
			if maxResults > 0 {
				req.MaxResults = &maxResults
			}
			if noSources {
				includeSources := false
				req.IncludeSources = &includeSources
			}
			filters.apply(&req.Country, &req.Category, &req.HybridAlpha)

			if stream {
				return askStream(a, cmd, req)
			}

			out, err := a.client.Answer(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(a, out)
			}
			printAnswer(a, out)
			return nil
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVarP(&maxResults, "max-results", "n", 0, "documents to retrieve (1-20)")
	cmd.Flags().BoolVar(&stream, "stream", false, "stream the answer as it is generated")
	cmd.Flags().BoolVar(&noSources, "no-sources", false, "omit sources from the response")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func askStream(a *app, cmd *cobra.Command, req rag_http.AnswerRequest) error {
	var final *rag_http.AnswerView
	err := a.client.AnswerStream(cmd.Context(), req, func(ev SSEEvent) error {
		switch ev.Event {
		case "delta":
			var d struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(ev.Data, &d); err != nil {
				return err
			}
			_, err := fmt.Fprint(a.out, d.Text)
			return err
		case "done", "fallback":
			var view rag_http.AnswerView
			if err := json.Unmarshal(ev.Data, &view); err != nil {
				return err
			}
			final = &view
			if ev.Event == "fallback" {
				a.printer.Plain("%s", view.Answer)
			}
		case "error":
			var e rag_http.ErrorView
			_ = json.Unmarshal(ev.Data, &e)
			a.printer.Error("%s", e.Message)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if final != nil {
		a.printer.Plain("")
		printSources(a, final)
	}
	return nil
}

func printAnswer(a *app, out *rag_http.AnswerView) {
	a.printer.Plain("%s", out.Answer)
	a.printer.Plain("")
	printSources(a, out)
}

func printSources(a *app, out *rag_http.AnswerView) {
	if out.Metadata.Outcome != "" && out.Metadata.Outcome != "answered" && out.Metadata.Outcome != "small_talk" {
		a.printer.Warning("outcome: %s", out.Metadata.Outcome)
	}
	a.printer.Confidence("confidence", out.ConfidenceScore)
	if len(out.Sources) > 0 {
		rows := make([][]string, len(out.Sources))
		for i, s := range out.Sources {
			rows[i] = []string{strconv.Itoa(s.Rank), fmt.Sprintf("%.3f", s.Score), s.Title, s.Source}
		}
		_ = a.printer.Table([]string{"rank", "score", "title", "source"}, rows)
	}
	a.printer.Plain("request %s in %.2fs", out.RequestID, out.ProcessingTime)
}

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <query>",
		Short: "Check a query for common problems before asking it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := a.client.ValidateQuery(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if out.Valid {
				a.printer.Success("query looks good (%d characters)", out.Length)
			}
			for _, issue := range out.Issues {
				a.printer.Warning("%s", issue)
			}
			for _, s := range out.Suggestions {
				a.printer.Info("hint: %s", s)
			}
			return nil
		},
	}
}

func newStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector collection statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := a.client.Collection(cmd.Context())
			if err != nil {
				return err
			}
			rows := [][]string{
				{"name", stats.Name},
				{"status", stats.Status},
				{"documents", strconv.Itoa(stats.Count)},
				{"dimension", strconv.Itoa(stats.Dimension)},
			}
			for _, status := range []string{"pending", "processing", "indexed", "failed"} {
				if n, ok := stats.ByStatus[status]; ok {
					rows = append(rows, []string{"status:" + status, strconv.Itoa(n)})
				}
			}
			return a.printer.Table([]string{"field", "value"}, rows)
		},
	}
}

func writeJSON(a *app, v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
