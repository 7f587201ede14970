package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/icp-discovery/internal/icp"
)

var discoverWorkspace string

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Run ICP discovery for a workspace",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		p := icp.New(cfg.Discovery, e.deals, e.convos, e.profiles)

		result, err := p.Run(ctx, discoverWorkspace)
		if err != nil {
			if icp.IsInsufficientData(err) {
				zap.L().Warn("workspace not ready for discovery",
					zap.String("workspace_id", discoverWorkspace),
					zap.Error(err),
				)
				return err
			}
			var pe *icp.PersistenceError
			if eris.As(err, &pe) && result != nil {
				// Analysis succeeded; surface it before reporting the
				// failed write.
				zap.L().Error("profile write failed, printing unsaved result",
					zap.Error(pe.Err),
				)
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(result)
				return err
			}
			return eris.Wrap(err, "discovery run")
		}

		zap.L().Info("discovery complete",
			zap.String("workspace_id", discoverWorkspace),
			zap.Int("personas", len(result.Personas)),
			zap.Int("committees", len(result.Committees)),
			zap.Int("profile_version", result.ProfileVersion),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverWorkspace, "workspace", "", "workspace ID (required)")
	_ = discoverCmd.MarkFlagRequired("workspace")
	rootCmd.AddCommand(discoverCmd)
}
