package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timelinekit/timeline/pkg/enhance"
)

// enhanceCmd calls the provider directly, without a running server.
var enhanceCmd = &cobra.Command{
	Use:   "enhance <text>",
	Short: "Rewrite a single text through the language model",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := enhance.ParseKind(flagString(cmd, "type"))
		if err != nil {
			return err
		}

		svc, err := newEnhanceService(cmd, nil)
		if err != nil {
			return err
		}

		var tc *enhance.Context
		title, action := flagString(cmd, "context-title"), flagString(cmd, "context-action")
		if title != "" || action != "" {
			tc = &enhance.Context{Title: title, Action: action}
		}

		out, err := svc.Enhance(cmd.Context(), enhance.Request{
			Text:    strings.Join(args, " "),
			Type:    kind,
			Context: tc,
		})
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enhanceCmd)
	enhanceCmd.Flags().String("type", string(enhance.KindDescription), "Kind of text: title, action or description")
	enhanceCmd.Flags().String("context-title", "", "Title of the item the text belongs to")
	enhanceCmd.Flags().String("context-action", "", "Action of the item the text belongs to")
}
