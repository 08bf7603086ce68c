package cli

import (
	"github.com/spf13/cobra"

	"chatctl/internal/tui"
)

func buildTUICmd(st *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open an interactive chat session in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(tui.Options{
				Client:       newAPIClient(st),
				Model:        st.Cfg.Model,
				SystemPrompt: st.Cfg.SystemPrompt,
				Temperature:  *st.Cfg.Temperature,
				TopP:         *st.Cfg.TopP,
				MaxTokens:    st.Cfg.MaxTokens,
				Log:          st.Log,
			})
		},
	}
}
