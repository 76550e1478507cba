package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timelinekit/timeline/pkg/model"
	"github.com/timelinekit/timeline/pkg/profile"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show and edit the hero profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, a.profile.Get())
		}
		return writeProfile(os.Stdout, a.profile.Get())
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the whole profile",
	Long:  "Replace the whole profile. Fields not given are left empty.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := model.Profile{
			Title:       flagString(cmd, "title"),
			Description: flagString(cmd, "description"),
			IconURL:     flagString(cmd, "icon-url"),
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.profile.Set(p)
		return writeProfile(os.Stdout, a.profile.Get())
	},
}

var profileUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change some profile fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := profilePatchFromFlags(cmd)
		if patch == (model.ProfilePatch{}) {
			return fmt.Errorf("nothing to change, pass --title, --description or --icon-url")
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return writeProfile(os.Stdout, a.profile.Update(patch))
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		a.profile.Reset()
		return writeProfile(os.Stdout, a.profile.Get())
	},
}

var profileIconCmd = &cobra.Command{
	Use:   "icon <file>",
	Short: "Embed an image file as the profile icon",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		icon, err := profile.IconDataURL(data)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		return writeProfile(os.Stdout, a.profile.Update(model.ProfilePatch{IconURL: &icon}))
	},
}

func profilePatchFromFlags(cmd *cobra.Command) model.ProfilePatch {
	var p model.ProfilePatch
	str := func(name string) *string {
		if !cmd.Flags().Changed(name) {
			return nil
		}
		v := flagString(cmd, name)
		return &v
	}
	p.Title = str("title")
	p.Description = str("description")
	p.IconURL = str("icon-url")
	return p
}

func addProfileFieldFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("title", "t", "", "Hero headline")
	cmd.Flags().String("description", "", "Hero subtext")
	cmd.Flags().String("icon-url", "", "Icon path or URL")
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.AddCommand(profileShowCmd, profileSetCmd, profileUpdateCmd, profileResetCmd, profileIconCmd)

	profileShowCmd.Flags().Bool("json", false, "Print the profile as JSON")
	addProfileFieldFlags(profileSetCmd)
	addProfileFieldFlags(profileUpdateCmd)
}
