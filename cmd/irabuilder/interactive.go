package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"irabuilder/pkg/orchestrator"
	"irabuilder/pkg/proto"
)

// runInteractive drives one workflow through its phases on the terminal:
// answer planner questions, review the plan, review the output. Quitting at
// any prompt leaves the persisted workflow resumable with -resume.
func runInteractive(ctx context.Context, orch *orchestrator.Orchestrator) error {
	in := bufio.NewScanner(os.Stdin)

	if orch.GetWorkflowSummary().Phase == proto.PhaseNotStarted {
		fmt.Println("⏳ Starting workflow...")
		result, err := orch.Start(ctx)
		if err != nil {
			return err
		}
		printReply(result)
	}

	for {
		if ctx.Err() != nil {
			fmt.Println("\n🛑 Interrupted. Workflow state is saved; resume with -resume.")
			return nil
		}

		summary := orch.GetWorkflowSummary()
		switch summary.Phase {
		case proto.PhasePlanning:
			answer, ok := readLine(in, "> ")
			if !ok {
				fmt.Println("Input closed. Workflow state is saved; resume with -resume.")
				return nil
			}
			result, err := orch.ProcessUserInput(ctx, answer)
			if err != nil {
				return err
			}
			printReply(result)

		case proto.PhasePlanReview:
			fmt.Println("\n📋 Plan ready for review:")
			fmt.Println(indent(summary.CurrentPlan()))
			choice, ok := readLine(in, "[a]pprove, [r]efine, or [q]uit: ")
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(choice)) {
			case "a", "approve":
				fmt.Println("⚙️  Generating and executing code...")
				result, err := orch.ApprovePlanAndGenerateCode(ctx)
				if err != nil {
					var limitErr *orchestrator.IterationLimitError
					if errors.As(err, &limitErr) {
						fmt.Printf("❌ Workflow failed: %s\n", result.Detail)
					}
					return err
				}
				fmt.Printf("✅ Output produced after %d iteration(s): %s\n", result.CodeIterations, result.OutputPath)
			case "r", "refine":
				feedback, fok := readLine(in, "Feedback: ")
				if !fok {
					return nil
				}
				result, err := orch.RefinePlan(ctx, feedback)
				if err != nil {
					return err
				}
				printReply(result)
			case "q", "quit":
				fmt.Println("Workflow state is saved; resume with -resume.")
				return nil
			}

		case proto.PhaseOutputReview:
			fmt.Printf("\n📦 Output ready for review: %s\n", summary.OutputPath)
			choice, ok := readLine(in, "[a]pprove, [r]efine, or [q]uit: ")
			if !ok {
				return nil
			}
			switch strings.ToLower(strings.TrimSpace(choice)) {
			case "a", "approve":
				result, err := orch.ApproveOutputAndComplete(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("🎉 Workflow completed. Output: %s\n", result.OutputPath)
				return nil
			case "r", "refine":
				feedback, fok := readLine(in, "Feedback: ")
				if !fok {
					return nil
				}
				result, err := orch.RefineOutput(ctx, feedback)
				if err != nil {
					var refErr *orchestrator.RefinementLimitError
					if errors.As(err, &refErr) {
						fmt.Printf("⚠️  %v. Approve the current output or quit.\n", refErr)
						continue
					}
					var limitErr *orchestrator.IterationLimitError
					if errors.As(err, &limitErr) {
						fmt.Printf("❌ Workflow failed: %v\n", limitErr)
					}
					return err
				}
				fmt.Printf("✅ Refined output after %d iteration(s): %s\n", result.CodeIterations, result.OutputPath)
			case "q", "quit":
				fmt.Println("Workflow state is saved; resume with -resume.")
				return nil
			}

		case proto.PhaseCompleted:
			fmt.Printf("🎉 Workflow already completed. Output: %s\n", summary.OutputPath)
			return nil

		case proto.PhaseFailed:
			fmt.Printf("❌ Workflow failed: %s\n", summary.Error)
			return errors.New(summary.Error)

		default:
			return fmt.Errorf("unexpected phase %s", summary.Phase)
		}
	}
}

func printReply(result orchestrator.Result) {
	if result.Reply == "" {
		return
	}
	if result.IsPlan {
		return // the review prompt prints the plan
	}
	fmt.Printf("\n🤖 %s\n", result.Reply)
}

func readLine(in *bufio.Scanner, prompt string) (string, bool) {
	fmt.Print(prompt)
	if !in.Scan() {
		return "", false
	}
	return in.Text(), true
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}
