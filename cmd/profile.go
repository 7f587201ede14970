package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	profileWorkspace string
	profileHistory   bool
	profileFormat    string
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the active ICP profile for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		var out any
		if profileHistory {
			versions, err := e.profiles.ListVersions(ctx, profileWorkspace)
			if err != nil {
				return eris.Wrap(err, "list profile versions")
			}
			if len(versions) == 0 {
				return eris.Errorf("no profiles for workspace %s", profileWorkspace)
			}
			out = versions
		} else {
			p, err := e.profiles.ActiveProfile(ctx, profileWorkspace)
			if err != nil {
				return eris.Wrap(err, "get active profile")
			}
			if p == nil {
				return eris.Errorf("no active profile for workspace %s", profileWorkspace)
			}
			out = p
		}

		switch profileFormat {
		case "yaml":
			return yaml.NewEncoder(os.Stdout).Encode(out)
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		default:
			return eris.Errorf("unsupported format: %s", profileFormat)
		}
	},
}

func init() {
	profileCmd.Flags().StringVar(&profileWorkspace, "workspace", "", "workspace ID (required)")
	profileCmd.Flags().BoolVar(&profileHistory, "history", false, "show all versions, newest first")
	profileCmd.Flags().StringVar(&profileFormat, "format", "json", "output format (json|yaml)")
	_ = profileCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(profileCmd)
}
