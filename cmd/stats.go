package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/storage"
	"github.com/timelinekit/timeline/pkg/timeline"
)

// yearStat is one row of the stats table.
type yearStat struct {
	Year     string
	Items    int
	Excluded int
}

func statsByYear(items []model.Item) []yearStat {
	groups := timeline.GroupByYear(items)
	out := make([]yearStat, 0, len(groups))
	for _, g := range groups {
		s := yearStat{Year: g.Year, Items: len(g.Items)}
		for _, it := range g.Items {
			if it.Excluded {
				s.Excluded++
			}
		}
		out = append(out, s)
	}
	return out
}

func writeStats(w io.Writer, stats []yearStat, keys []storage.KeyStat) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "YEAR\tITEMS\tEXCLUDED\t")

	var totalItems, totalExcluded int
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", s.Year, s.Items, s.Excluded)
		totalItems += s.Items
		totalExcluded += s.Excluded
	}

	fmt.Fprintln(tw, " \t \t \t")
	fmt.Fprintf(tw, "TOTAL\t%d\t%d\t\n", totalItems, totalExcluded)
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(keys) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "KEY\tBYTES\tUPDATED")
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", k.Key, k.Bytes, k.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// itemsStatsCmd represents the stats command
var itemsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Prints item counts per year and the size of the stored records.",
	Long:  "Prints item counts per year and the size of the stored records.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items := a.timeline.Items()
		if len(items) == 0 {
			fmt.Println("No items to generate stats.")
			return nil
		}

		keys, err := a.backend.Stats(context.Background())
		if err != nil {
			return err
		}
		return writeStats(os.Stdout, statsByYear(items), keys)
	},
}

func init() {
	itemsCmd.AddCommand(itemsStatsCmd)
}
