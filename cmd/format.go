package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/timeline"
)

// visibleItems drops excluded items unless all is set.
func visibleItems(items []model.Item, all bool) []model.Item {
	if all {
		return items
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if !it.Excluded {
			out = append(out, it)
		}
	}
	return out
}

func headline(it model.Item) string {
	title := it.Title
	if it.Emoji != "" {
		title = it.Emoji + " " + title
	}
	if it.Excluded {
		title += " (excluded)"
	}
	return title
}

func writeItems(w io.Writer, items []model.Item) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tACTION\tID")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", it.Date, headline(it), it.Action, it.ID)
	}
	return tw.Flush()
}

func writeGrouped(w io.Writer, groups []timeline.YearGroup) error {
	for i, g := range groups {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, g.Year)
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, it := range g.Items {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", monthDay(it.Date), headline(it), it.ID)
			if it.Description != "" {
				fmt.Fprintf(tw, "  \t%s\t\n", it.Description)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func monthDay(date string) string {
	if len(date) == len("2006-01-02") {
		return date[5:]
	}
	return date
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeProfile(w io.Writer, p model.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Title:\t%s\n", p.Title)
	fmt.Fprintf(tw, "Description:\t%s\n", p.Description)
	fmt.Fprintf(tw, "Icon:\t%s\n", shortIcon(p.IconURL))
	return tw.Flush()
}

// shortIcon keeps data URLs from flooding the terminal.
func shortIcon(u string) string {
	if !strings.HasPrefix(u, "data:") {
		return u
	}
	head := u
	if i := strings.IndexByte(u, ','); i >= 0 {
		head = u[:i]
	}
	return fmt.Sprintf("%s,... (%d bytes)", head, len(u))
}
