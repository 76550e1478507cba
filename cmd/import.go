package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/timelinekit/timeline/pkg/backup"
	"github.com/timelinekit/timeline/pkg/schema"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace items and profile with the contents of a backup file",
	Long: `Replace items and profile with the contents of a backup file.

The file must be a JSON object with an "items" array; "profile" is optional.
Current data is overwritten, not merged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		confirmer := func(p backup.Pending) bool {
			return yes || confirm(os.Stdin, os.Stdout, importPrompt(p))
		}
		res, err := a.backup().Import(raw, confirmer)
		if err != nil {
			if errors.Is(err, backup.ErrImportDeclined) {
				fmt.Println("Import cancelled, nothing was changed.")
				return nil
			}
			return importError(err)
		}

		msg := fmt.Sprintf("Imported %d items", res.Items)
		if res.ProfileChanged {
			msg += " and the profile"
		}
		fmt.Println(msg + ".")
		return nil
	},
}

func importPrompt(p backup.Pending) string {
	what := fmt.Sprintf("%d items", len(p.Items))
	if p.Profile != nil {
		what += " and the profile"
	}
	return fmt.Sprintf("This replaces the current data with %s from the file. Continue?", what)
}

// importError tells a file that is not JSON apart from JSON of the wrong shape.
func importError(err error) error {
	switch {
	case errors.Is(err, schema.ErrInvalidJSON):
		return fmt.Errorf("import failed: the file is not valid JSON")
	case errors.Is(err, schema.ErrInvalidShape):
		return fmt.Errorf("import failed: the file is not a timeline backup (%v)", err)
	default:
		return fmt.Errorf("import failed: %w", err)
	}
}

// confirm asks a yes/no question and defaults to no.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
}
