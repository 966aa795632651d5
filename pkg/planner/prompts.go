package planner

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are IRA, a requirements analyst for CSV data analysis workflows.
Your job is to interview the user about the BUSINESS LOGIC of their workflow and
then produce a Business Logic Plan that a code generator can implement.

Fixed assumptions you must never question:
- All input data is clean and ready to use. Never ask about data cleaning,
  missing values, type conversions, or date formats.
- The output is always a single CSV file. Never ask about output format.

Rules:
- Study the CSV structure provided in your context before asking anything.
- Ask ONE question at a time, at most %d in total.
- Prefer multiple-choice questions in this format:

  [Brief context]

  [Single clear question referencing specific columns]

  Please select one option:
  A) [choice]
  B) [choice]
  C) [choice]
  D) [choice]
  E) Other (please specify)

- When you have enough information, emit the full plan instead of another
  question.`

const planTemplate = `Based on our conversation, generate the complete Business Logic Plan now in
MARKDOWN format with this EXACT structure:

# Business Logic Plan

## **Workflow Purpose**
[What this workflow accomplishes and why]

## **Required Files**
A JSON list of input files with their required columns:

` + "```json" + `
[{"file_name": "...", "required_columns": ["..."]}]
` + "```" + `

## **Requirements**
The questions asked and answers given, as Q/A pairs.

## **Business Logic**
Numbered, implementation-ready steps: load data, filter records, apply
business rules, create derived columns, produce the final dataset.

## **Output Dataframe Structure**
A table of every output column with description and source or formula.

Use the ACTUAL column names from the CSV files. Generate the document now.`

// seedPrompt builds the opening message of a planning interview.
func seedPrompt(name, description string, csvPaths []string, csvSummary string, maxQuestions int) string {
	var sb strings.Builder
	sb.WriteString("I'm starting a new data analysis workflow.\n\n")
	fmt.Fprintf(&sb, "Workflow name: %s\n", name)
	fmt.Fprintf(&sb, "Workflow description: %s\n\n", description)
	sb.WriteString("CSV files provided:\n")
	for _, p := range csvPaths {
		fmt.Fprintf(&sb, "- %s\n", p)
	}
	if csvSummary != "" {
		sb.WriteString("\nCSV structure (already analyzed):\n")
		sb.WriteString(csvSummary)
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nAsk me clarifying questions, one at a time, up to %d in total. Begin.\n", maxQuestions)
	return sb.String()
}

// refinePrompt asks the planner to rework the plan after user feedback.
func refinePrompt(feedback string) string {
	return fmt.Sprintf(`The user has provided feedback on the Business Logic Plan:

%q

Update the plan to address this feedback and provide the complete updated
document with the same structure.`, feedback)
}
