package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/big-blue22/keizibann/internal/client"
	"github.com/big-blue22/keizibann/internal/models"
	"github.com/big-blue22/keizibann/internal/util"
	"github.com/fatih/color"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	errText = color.New(color.FgRed, color.Bold).SprintFunc()
)

func jsonOutput() bool {
	return viper.GetString("output.format") == "json"
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printSuccess(format string, args ...interface{}) {
	fmt.Printf("%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

func printError(err error) {
	msg := err.Error()
	if client.IsUnauthorized(err) {
		msg += " (run `keizibann login` first)"
	}
	fmt.Fprintf(os.Stderr, "%s %s\n", errText("Error:"), msg)
}

func printPosts(posts []*models.Post) error {
	if jsonOutput() {
		return printJSON(posts)
	}
	if len(posts) == 0 {
		fmt.Println(faint("no posts"))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, bold("ID\tCREATED\tVIEWS\tRECENT\tCOMMENTS\tLABELS\tSUMMARY"))
	for _, p := range posts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%s\t%s\n",
			cyan(p.ID),
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
			p.TotalViewCount,
			p.RecentViewCount,
			p.CommentCount,
			strings.Join(p.Labels, ","),
			truncate(p.Summary, 40),
		)
	}
	return w.Flush()
}

func printPost(p *models.Post) error {
	if jsonOutput() {
		return printJSON(p)
	}
	fmt.Printf("%s %s\n", bold("ID:"), cyan(p.ID))
	if p.Title != "" {
		fmt.Printf("%s %s\n", bold("Title:"), p.Title)
	}
	fmt.Printf("%s %s\n", bold("URL:"), p.URL)
	fmt.Printf("%s %s\n", bold("Created:"), p.CreatedAt.Local().Format(time.RFC1123))
	if len(p.Labels) > 0 {
		fmt.Printf("%s %s\n", bold("Labels:"), yellow(strings.Join(p.Labels, ", ")))
	}
	fmt.Printf("%s %d total, %d recent\n", bold("Views:"), p.TotalViewCount, p.RecentViewCount)

	days := make([]string, 0, len(p.DailyViews))
	for d := range p.DailyViews {
		days = append(days, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))
	for _, d := range days {
		fmt.Printf("  %s  %d\n", faint(d), p.DailyViews[d])
	}

	fmt.Printf("%s %d\n", bold("Comments:"), p.CommentCount)
	if p.PreviewData != nil {
		fmt.Printf("%s %s (%s)\n", bold("Preview:"), p.PreviewData.Title, p.PreviewData.SiteName)
	}
	fmt.Printf("\n%s\n", p.Summary)
	return nil
}

func printComments(comments []*models.Comment) error {
	if jsonOutput() {
		return printJSON(comments)
	}
	if len(comments) == 0 {
		fmt.Println(faint("no comments"))
		return nil
	}
	for _, c := range comments {
		fmt.Printf("%s %s\n  %s\n", cyan(c.ID), faint(c.CreatedAt.Local().Format("2006-01-02 15:04")), c.Content)
	}
	return nil
}

func truncate(s string, n int) string {
	s = util.CollapseSpace(s)
	if cut := util.TruncateRunes(s, n-1); cut != s {
		return cut + "…"
	}
	return s
}
