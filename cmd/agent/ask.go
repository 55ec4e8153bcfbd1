package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(a *app) *cobra.Command {
	var (
		question string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer one question and print the result",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			defer a.Close()

			if question == "" {
				question = strings.Join(args, " ")
			}
			if strings.TrimSpace(question) == "" {
				return errors.New(`please provide -q "your question"`)
			}

			c, err := a.buildPipeline(ctx)
			if err != nil {
				return err
			}
			state, err := c.pipeline.Run(ctx, question)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(state)
			}
			_, err = fmt.Fprintln(out, state.Display())
			return err
		},
	}

	cmd.Flags().StringVarP(&question, "question", "q", "", "question text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the whole run record as JSON")
	return cmd
}
