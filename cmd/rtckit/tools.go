package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"rtckit/pkg/sanitize"
	"rtckit/pkg/sdputil"

	"github.com/spf13/cobra"
)

// readInput reads the file named by args[0], or stdin when there is none or
// it is "-".
func readInput(cmd *cobra.Command, args []string) (string, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) > 0 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return "", err
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}

func commandMunge() *cobra.Command {
	var codec string
	cmd := &cobra.Command{
		Use:   "munge [file]",
		Short: "Prefer a video codec and tidy an SDP blob",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			out, err := sdputil.Munge(in, codec)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVar(&codec, "codec", "", "video codec to move to the front, e.g. VP9 or H264")
	return cmd
}

func commandDirections() *cobra.Command {
	return &cobra.Command{
		Use:   "directions [file]",
		Short: "Print the media directions of an SDP blob as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			directions, err := sdputil.MediaDirections(in)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(directions)
		},
	}
}

func commandSanitize() *cobra.Command {
	var policy string
	cmd := &cobra.Command{
		Use:   "sanitize [file]",
		Short: "Strip unsafe markup from an HTML fragment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sanitize.New(policy)
			if err != nil {
				return err
			}
			in, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), s.HTML(in))
			return err
		},
	}
	cmd.Flags().StringVar(&policy, "policy", sanitize.PolicyUGC, "sanitizer policy (ugc or strict)")
	return cmd
}
