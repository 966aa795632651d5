package coder

import "fmt"

const codeSystemPrompt = `You are a Python code generator for CSV data analysis workflows.
You receive a Business Logic Plan and produce a complete pandas script that
implements it.

Mandatory code structure:
- Part 1, paths: refer to input files as csv_files[0], csv_files[1], ... and
  write the result with output_file_path = output_path. Never hardcode paths.
- Part 2, logic: load the data, apply the business rules from the plan, and
  build the output dataframe.
- Part 3, save: write the output dataframe to output_file_path as CSV and
  print a status message for each step.

Always reply with ONLY the code wrapped in a single ` + "```python ... ```" + ` block.`

func initialCodePrompt(plan string) string {
	return fmt.Sprintf(`Business Logic Plan:

%s

Generate the complete Python pandas code implementing this plan. Follow the
mandatory code structure and provide ONLY the code in a markdown block.`, plan)
}

func syntaxFixPrompt(diagnostics string) string {
	return fmt.Sprintf(`Your code has a syntax error and cannot be executed.

%s

Fix the syntax error and provide the COMPLETE corrected code, not a snippet.`, diagnostics)
}

func executionFixPrompt(exitCode int, stderr string) string {
	return fmt.Sprintf(`Your code failed during execution.

Exit code: %d

Error output (tail):
%s

Fix the error and provide the COMPLETE corrected code, not a snippet.`, exitCode, tail(stderr, 500))
}

func timeoutFixPrompt(timeoutSecs float64) string {
	return fmt.Sprintf(`Your code did not finish within the %.0f second limit and was killed.

Make the implementation more efficient (avoid row-by-row loops, prefer
vectorized pandas operations) and provide the COMPLETE corrected code.`, timeoutSecs)
}

func outputFixPrompt(problem, outputPath string) string {
	return fmt.Sprintf(`Your code executed without errors, but the output file has issues.

Problem: %s
Expected output path: %s

Fix the issue and provide the COMPLETE corrected code. Make sure the script
saves the output CSV to the exact path given by output_path.`, problem, outputPath)
}

func refineCodePrompt(feedback string) string {
	return fmt.Sprintf(`The user has reviewed the workflow output and provided feedback:

%q

Update the code to address this feedback and provide the COMPLETE updated
script.`, feedback)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
