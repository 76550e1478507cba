package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/timelinekit/timeline/pkg/enhance"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/timeline"
)

// itemsCmd represents the items command
var itemsCmd = &cobra.Command{
	Use:   "items",
	Short: "List and edit timeline items",
}

var itemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List items, most recent first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		grouped, _ := cmd.Flags().GetBool("grouped")
		asJSON, _ := cmd.Flags().GetBool("json")
		all, _ := cmd.Flags().GetBool("all")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items := visibleItems(a.timeline.Items(), all)
		switch {
		case asJSON && grouped:
			return writeJSON(os.Stdout, timeline.GroupByYear(items))
		case asJSON:
			return writeJSON(os.Stdout, items)
		case len(items) == 0:
			fmt.Println("No items.")
			return nil
		case grouped:
			return writeGrouped(os.Stdout, timeline.GroupByYear(items))
		default:
			return writeItems(os.Stdout, items)
		}
	},
}

var itemsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		in := model.NewItem{
			Date:        flagString(cmd, "date"),
			Title:       flagString(cmd, "title"),
			Action:      flagString(cmd, "action"),
			Description: flagString(cmd, "description"),
			URL:         flagString(cmd, "url"),
			ImageURL:    flagString(cmd, "image-url"),
			Emoji:       flagString(cmd, "emoji"),
		}
		if in.Date == "" {
			in.Date = time.Now().Format("2006-01-02")
		}

		if useEnhance, _ := cmd.Flags().GetBool("enhance"); useEnhance {
			c, err := newEnhanceClient(cmd)
			if err != nil {
				return err
			}
			enhanceNewItem(cmd.Context(), c, &in)
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		it, err := a.timeline.Add(in)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s (%s %s)\n", it.ID, it.Date, it.Title)
		return nil
	},
}

var itemsEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of an item",
	Long:  "Change fields of an item. Only the flags given are written; the item keeps its position in the list.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := itemPatchFromFlags(cmd)
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change, pass at least one field flag")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		current, ok := a.timeline.Get(args[0])
		if !ok {
			return fmt.Errorf("no item with id %s", args[0])
		}

		if useEnhance, _ := cmd.Flags().GetBool("enhance"); useEnhance {
			c, err := newEnhanceClient(cmd)
			if err != nil {
				return err
			}
			enhancePatch(cmd.Context(), c, patch.Apply(current), &patch)
		}

		if _, err := a.timeline.Update(args[0], patch); err != nil {
			return err
		}
		updated, _ := a.timeline.Get(args[0])
		fmt.Printf("Updated %s (%s %s)\n", updated.ID, updated.Date, updated.Title)
		return nil
	},
}

var itemsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if !a.timeline.Delete(args[0]) {
			fmt.Printf("No item with id %s, nothing deleted.\n", args[0])
			return nil
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var itemsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every item",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n := a.timeline.Len()
		if !yes && !confirm(os.Stdin, os.Stdout, fmt.Sprintf("Remove all %d items?", n)) {
			fmt.Println("Aborted.")
			return nil
		}
		a.timeline.Clear()
		fmt.Printf("Removed %d items.\n", n)
		return nil
	},
}

func flagString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}

func itemPatchFromFlags(cmd *cobra.Command) model.ItemPatch {
	var p model.ItemPatch
	str := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v := flagString(cmd, name)
		return &v
	}
	p.Date = str("date")
	p.Title = str("title")
	p.Action = str("action")
	p.Description = str("description")
	p.URL = str("url")
	p.ImageURL = str("image-url")
	p.Emoji = str("emoji")
	if cmd.Flags().Changed("excluded") {
		v, _ := cmd.Flags().GetBool("excluded")
		p.Excluded = &v
	}
	return p
}

func newEnhanceClient(cmd *cobra.Command) (*enhance.Client, error) {
	hc, err := httpClient(cmd)
	if err != nil {
		return nil, err
	}
	return enhance.NewClient(viper.GetString("enhance.url"), hc), nil
}

type textEnhancer interface {
	Enhance(ctx context.Context, text string, kind enhance.Kind, tc *enhance.Context) string
}

func enhanceNewItem(ctx context.Context, c textEnhancer, in *model.NewItem) {
	tc := &enhance.Context{Title: in.Title, Action: in.Action, Description: in.Description}
	in.Title = c.Enhance(ctx, in.Title, enhance.KindTitle, tc)
	in.Action = c.Enhance(ctx, in.Action, enhance.KindAction, tc)
	in.Description = c.Enhance(ctx, in.Description, enhance.KindDescription, tc)
}

// enhancePatch rewrites only the text fields the patch sets. merged is the
// item as it will look after the patch and provides the context.
func enhancePatch(ctx context.Context, c textEnhancer, merged model.Item, p *model.ItemPatch) {
	tc := &enhance.Context{Title: merged.Title, Action: merged.Action, Description: merged.Description}
	fields := []struct {
		dst  *string
		kind enhance.Kind
	}{
		{p.Title, enhance.KindTitle},
		{p.Action, enhance.KindAction},
		{p.Description, enhance.KindDescription},
	}
	for _, f := range fields {
		if f.dst != nil {
			*f.dst = c.Enhance(ctx, *f.dst, f.kind, tc)
		}
	}
}

func addItemFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("date", "d", "", "Date of the event (YYYY-MM-DD)")
	cmd.Flags().StringP("title", "t", "", "Title")
	cmd.Flags().StringP("action", "a", "", "Action verb shown next to the title")
	cmd.Flags().String("description", "", "Longer description")
	cmd.Flags().String("url", "", "Link for the item")
	cmd.Flags().String("image-url", "", "Image shown with the item")
	cmd.Flags().String("emoji", "", "Emoji shown before the title")
	cmd.Flags().Bool("enhance", false, "Rewrite title, action and description through the enhancement service first")
}

func init() {
	rootCmd.AddCommand(itemsCmd)
	itemsCmd.AddCommand(itemsListCmd, itemsAddCmd, itemsEditCmd, itemsDeleteCmd, itemsClearCmd)

	itemsListCmd.Flags().BoolP("grouped", "g", false, "Group items by year")
	itemsListCmd.Flags().Bool("json", false, "Print items as JSON")
	itemsListCmd.Flags().Bool("all", false, "Include excluded items")

	addItemFieldFlags(itemsAddCmd)
	itemsAddCmd.MarkFlagRequired("title")

	addItemFieldFlags(itemsEditCmd)
	itemsEditCmd.Flags().Bool("excluded", false, "Hide the item from the timeline (--excluded=false shows it again)")

	itemsClearCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
