package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/meddetect/internal/client"
	"github.com/example/meddetect/internal/session"
)

// detectionLogGrace bounds how long the command lingers for the detection
// log write before exiting.
const detectionLogGrace = 10 * time.Second

func detectCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "detect <image>",
		Short: "Upload an image to the classification endpoint and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.cfg.Client.Validate(); err != nil {
				return err
			}

			image, err := client.ReadImageFile(args[0])
			if err != nil {
				return err
			}

			c := client.New(rt.cfg.Client.BaseURL, rt.cfg.Client.APIKey, client.WithLogger(rt.logger))
			s := session.NewDetectorSession(c, c, rt.logger)
			s.SelectImage(image)

			st, err := s.Analyze(cmd.Context())
			if err != nil {
				if failed, ok := st.(session.Failed); ok {
					return errors.New(failed.Message)
				}
				return err
			}

			if succeeded, ok := st.(session.Succeeded); ok {
				printResult(cmd.OutOrStdout(), succeeded)
			}

			waitWithGrace(s, detectionLogGrace)
			return nil
		},
	}
}

func printResult(w io.Writer, st session.Succeeded) {
	r := st.Result
	fmt.Fprintf(w, "Detected Cancer Type: %s\n", r.CancerType)
	fmt.Fprintf(w, "Confidence Score:     %d%%\n\n", r.Confidence)
	fmt.Fprintf(w, "Description:\n  %s\n\n", r.Description)
	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  -> %s\n", rec)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, strings.TrimSpace(`
Medical Disclaimer: This is an AI-powered detection tool for educational purposes.
Always consult qualified healthcare professionals for proper diagnosis and treatment.`))
}

func waitWithGrace(s *session.DetectorSession, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
	}
}
