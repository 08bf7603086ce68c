package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"chatctl/internal/client"
	"chatctl/internal/relay"
	"chatctl/pkg/types"
)

// relayReply is the frame sent back over a relay link: the upstream HTTP
// status plus the response body verbatim.
type relayReply struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

func buildRelayCmd(st *Settings) *cobra.Command {
	var (
		addr       string
		prefixSize int
	)
	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Forward chat requests between nodes over a framed TCP link",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", ":50007", "Relay TCP address")
	cmd.PersistentFlags().IntVar(&prefixSize, "prefix-size", relay.DefaultPrefixSize, "Frame length prefix width in bytes (1..8)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Accept framed chat requests and forward them to the configured server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := relay.Listen(addr, relay.WithPrefixSize(prefixSize))
			if err != nil {
				return err
			}
			defer srv.Close()
			st.Log.Info().Str("addr", srv.Addr().String()).Str("upstream", st.Cfg.BaseURL).Msg("relay listening")

			c := newAPIClient(st)
			for {
				conn, err := srv.Accept()
				if err != nil {
					return err
				}
				st.Log.Info().Msg("peer connected")
				servePeer(cmd, st, c, conn)
			}
		},
	}

	send := &cobra.Command{
		Use:   "send [prompt]",
		Short: "Send one prompt to a relay peer and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := relay.Dial(cmd.Context(), addr, relay.WithPrefixSize(prefixSize))
			if err != nil {
				return err
			}
			defer conn.Close()

			prompt := strings.Join(args, " ")
			req := buildRequest(st, prompt, st.Cfg.SystemPrompt, *st.Cfg.Temperature, *st.Cfg.TopP, st.Cfg.MaxTokens)
			if err := conn.SendJSON(req); err != nil {
				return err
			}
			var reply relayReply
			if err := conn.RecvJSON(&reply); err != nil {
				return err
			}
			os.Stdout.Write(reply.Body)
			fmt.Println()
			if reply.Status < 200 || reply.Status >= 300 {
				return fmt.Errorf("relay peer returned status %d", reply.Status)
			}
			return nil
		},
	}

	cmd.AddCommand(serve, send)
	return cmd
}

// servePeer forwards frames from one peer until it disconnects.
func servePeer(cmd *cobra.Command, st *Settings, c *client.Client, conn *relay.Conn) {
	defer conn.Close()
	for {
		var req types.ChatRequest
		if err := conn.RecvJSON(&req); err != nil {
			st.Log.Debug().Err(err).Msg("peer done")
			return
		}
		reply := forward(cmd, c, req)
		if err := conn.SendJSON(reply); err != nil {
			st.Log.Warn().Err(err).Msg("reply send failed")
			return
		}
	}
}

// forward performs the upstream completion and folds both error kinds into a
// reply frame, so the peer always gets an answer.
func forward(cmd *cobra.Command, c *client.Client, req types.ChatRequest) relayReply {
	body, err := c.ChatRaw(cmd.Context(), req)
	if err == nil {
		return relayReply{Status: http.StatusOK, Body: rawOrQuoted(body)}
	}
	if ae, ok := client.AsAPIError(err); ok {
		return relayReply{Status: ae.Status, Body: rawOrQuoted(ae.Body)}
	}
	msg, _ := json.Marshal(types.ErrorResponse{Error: err.Error(), Code: http.StatusBadGateway})
	return relayReply{Status: http.StatusBadGateway, Body: msg}
}

// rawOrQuoted embeds b as-is when it is valid JSON, otherwise as a JSON string,
// so the reply frame always marshals.
func rawOrQuoted(b []byte) json.RawMessage {
	if json.Valid(b) {
		return json.RawMessage(b)
	}
	q, _ := json.Marshal(string(b))
	return q
}
