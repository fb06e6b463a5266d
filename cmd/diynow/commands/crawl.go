package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"diynow/pkg/app"
	"diynow/pkg/crawler"
	"diynow/pkg/domain"
	"diynow/pkg/logger"
	"diynow/pkg/sink"
)

var (
	outputPath string
	showTable  bool
)

func init() {
	for _, c := range []*cobra.Command{crawlCmd, searchCmd} {
		c.Flags().StringVarP(&outputPath, "output", "o", "", "output JSON file (default from config, ProjectOut.json)")
		c.Flags().BoolVar(&showTable, "table", false, "print the records as a table")
		rootCmd.AddCommand(c)
	}
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Samples projects from every site and writes them to the output file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return discover(cmd, "")
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Samples projects matching a keyword and writes them to the output file.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keyword := strings.TrimSpace(strings.Join(args, " "))
		if keyword == "" {
			return crawler.ErrEmptyKeyword
		}
		return discover(cmd, keyword)
	},
}

func discover(cmd *cobra.Command, keyword string) error {
	ctx := cmd.Context()

	path := cfg.Output.Path
	if outputPath != "" {
		path = outputPath
	}
	out := sink.NewFileSink(path)

	svc, closeArchive, err := app.NewDiscovery(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeArchive(ctx)

	start := time.Now()
	records, err := svc.Discover(ctx, keyword, out)
	if err != nil {
		return err
	}
	log.Info("results written",
		logger.String("keyword", keyword),
		logger.Int("records", len(records)),
		logger.String("output", out.Path()),
		logger.Duration("elapsed", time.Since(start)))

	if showTable {
		printTable(cmd.OutOrStdout(), records)
	}
	return nil
}

func printTable(w io.Writer, records []domain.ProjectRecord) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"#", "Title", "URL", "Image"})
	for i, r := range records {
		t.AppendRow(table.Row{i + 1, r.Title, r.URL, r.Image()})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d projects", len(records))})
	t.Render()
}
