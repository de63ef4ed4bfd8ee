package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Conceptual-Machines/gyanguru-api/internal/audio"
	"github.com/Conceptual-Machines/gyanguru-api/internal/extract"
	"github.com/spf13/cobra"
)

// newRootCommand creates and configures the root command
func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gyanguru-tools",
		Short: "Offline helpers for GyanGuru responses",
		Long: `gyanguru-tools splits saved code generation responses into their parts and
converts raw speech payloads into WAV files, without calling a model.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newExtractCommand())
	rootCmd.AddCommand(newTranscodeCommand())
	return rootCmd
}

func newExtractCommand() *cobra.Command {
	var language string

	extractCmd := &cobra.Command{
		Use:   "extract [file]",
		Short: "Extract dependencies, code and explanation from a model response",
		Long:  `Reads a code generation response from file, or from stdin when no file is given, and prints the extracted fields as JSON.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if len(args) == 1 {
				raw, err = os.ReadFile(args[0])
			} else {
				raw, err = io.ReadAll(cmd.InOrStdin())
			}
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}

			result := extract.NewParser(language).Parse(string(raw))

			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(result)
		},
	}

	extractCmd.Flags().StringVar(&language, "language", extract.DefaultLanguage, "Fence tag of the code block")
	return extractCmd
}

func newTranscodeCommand() *cobra.Command {
	var (
		in         string
		out        string
		sampleRate int
		channels   int
	)

	transcodeCmd := &cobra.Command{
		Use:   "transcode",
		Short: "Convert base64 PCM s16le audio into a WAV file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := audio.CheckWAVFormat(sampleRate, channels); err != nil {
				return err
			}

			encoded, err := os.ReadFile(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			buf, err := audio.DecodeTranscode(string(encoded), sampleRate, channels)
			if err != nil {
				return err
			}

			wav, err := audio.EncodeWAV(buf)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, wav, 0o644); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d frames, %d channel(s) at %d Hz (%s)\n",
				out, buf.FrameCount(), buf.Channels, buf.SampleRate, buf.Duration())
			return nil
		},
	}

	transcodeCmd.Flags().StringVar(&in, "in", "", "File holding the base64 payload")
	transcodeCmd.Flags().StringVar(&out, "out", "", "WAV file to write")
	transcodeCmd.Flags().IntVar(&sampleRate, "sample-rate", audio.DefaultSampleRate, "Sample rate in Hz")
	transcodeCmd.Flags().IntVar(&channels, "channels", audio.DefaultChannels, "Interleaved channel count")
	_ = transcodeCmd.MarkFlagRequired("in")
	_ = transcodeCmd.MarkFlagRequired("out")
	return transcodeCmd
}
