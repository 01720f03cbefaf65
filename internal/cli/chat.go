package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/aiosforge/internal/assistant"
	"github.com/soyeahso/aiosforge/internal/llm"
	"github.com/soyeahso/aiosforge/internal/wizard"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		modelFile string
		step      string
	)

	cmd := &cobra.Command{
		Use:   "chat [message...]",
		Short: "Ask the wizard assistant a question and stream the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := assistant.WizardState{Step: wizard.Step(step)}
			if !st.Step.Valid() {
				return fmt.Errorf("unknown step %q (one of %s)", step, stepNames())
			}
			if modelFile != "" {
				m, err := readModel(modelFile)
				if err != nil {
					return err
				}
				st.Model = m
			}

			_, a, err := requireAssistant()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			messages := []llm.Message{{Role: llm.RoleUser, Content: strings.Join(args, " ")}}
			reply, err := a.ChatStream(ctx, messages, st, func(delta string) {
				fmt.Fprint(out, delta)
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			if reply.Model != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n[model=%s tokens=%d+%d]\n",
					reply.Model, reply.Usage.InputTokens, reply.Usage.OutputTokens)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&modelFile, "model", "", "project model file giving the assistant context")
	cmd.Flags().StringVar(&step, "step", string(wizard.StepDiscovery), "wizard step the question is about")
	return cmd
}

func stepNames() string {
	var names []string
	for _, s := range wizard.Steps() {
		names = append(names, string(s))
	}
	return strings.Join(names, ", ")
}
