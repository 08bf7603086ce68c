package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatctl/internal/client"
	"chatctl/pkg/types"
)

// buildRequest assembles a ChatRequest from settings plus per-command flags.
func buildRequest(st *Settings, prompt, system string, temperature, topP float64, maxTokens int) types.ChatRequest {
	var msgs []types.Message
	if system != "" {
		msgs = append(msgs, types.Message{Role: types.RoleSystem, Content: system})
	}
	msgs = append(msgs, types.Message{Role: types.RoleUser, Content: prompt})
	return types.ChatRequest{
		Model:       st.Cfg.Model,
		Messages:    msgs,
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}
}

func newAPIClient(st *Settings) *client.Client {
	return client.New(st.Cfg.BaseURL, st.Cfg.APIKey,
		client.WithTimeout(st.Cfg.Timeout()),
		client.WithLogger(st.Log))
}

func buildChatCmd(st *Settings) *cobra.Command {
	var (
		system      string
		temperature float64
		topP        float64
		maxTokens   int
		stream      bool
		raw         bool
	)
	cmd := &cobra.Command{
		Use:     "chat [prompt]",
		Short:   "Send one completion request and print the answer",
		Example: "  chatctl chat \"What is the capital of Japan?\"\n  chatctl chat --stream \"Write a haiku about the ocean.\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args, " ")
			if !cmd.Flags().Changed("system") {
				system = st.Cfg.SystemPrompt
			}
			if !cmd.Flags().Changed("temperature") {
				temperature = *st.Cfg.Temperature
			}
			if !cmd.Flags().Changed("top-p") {
				topP = *st.Cfg.TopP
			}
			if !cmd.Flags().Changed("max-tokens") {
				maxTokens = st.Cfg.MaxTokens
			}
			req := buildRequest(st, prompt, system, temperature, topP, maxTokens)
			c := newAPIClient(st)
			ctx := cmd.Context()

			if stream {
				err := c.ChatStream(ctx, req, func(chunk types.ChatStreamChunk) error {
					for _, ch := range chunk.Choices {
						fmt.Print(ch.Delta.Content)
					}
					return nil
				})
				if err != nil {
					return err
				}
				fmt.Println()
				return nil
			}

			if raw {
				body, err := c.ChatRaw(ctx, req)
				if err != nil {
					return err
				}
				os.Stdout.Write(body)
				fmt.Println()
				return nil
			}

			resp, err := c.Chat(ctx, req)
			if err != nil {
				return err
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("no choices in response")
			}
			fmt.Println(resp.Choices[0].Message.Content)
			return nil
		},
	}
	cmd.Flags().StringVar(&system, "system", "", "System prompt prepended to the conversation")
	cmd.Flags().Float64Var(&temperature, "temperature", 0.7, "Sampling temperature in [0,2]")
	cmd.Flags().Float64Var(&topP, "top-p", 0.8, "Nucleus sampling probability in [0,1]")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 200, "Maximum new tokens to generate")
	cmd.Flags().BoolVar(&stream, "stream", false, "Stream the answer as it is generated")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the raw JSON response body")
	return cmd
}

func buildModelsCmd(st *Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models available on the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := newAPIClient(st).Models(cmd.Context())
			if err != nil {
				return err
			}
			for _, m := range models {
				if m.OwnedBy != "" {
					fmt.Printf("%s\t%s\n", m.ID, m.OwnedBy)
					continue
				}
				fmt.Println(m.ID)
			}
			return nil
		},
	}
}
