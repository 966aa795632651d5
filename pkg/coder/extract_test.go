package coder

import (
	"strings"
	"testing"
)

func TestExtractCodeFromMarkdown(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "python fence",
			text: "Here's the code:\n```python\nprint('hello')\n```\nDone.",
			want: "print('hello')",
		},
		{
			name: "uppercase language tag",
			text: "```Python\nimport pandas as pd\n```",
			want: "import pandas as pd",
		},
		{
			name: "bare fence with python content",
			text: "```\nimport pandas as pd\ndf = pd.read_csv(csv_files[0])\n```",
			want: "import pandas as pd\ndf = pd.read_csv(csv_files[0])",
		},
		{
			name: "no fences returns trimmed text",
			text: "  import pandas as pd\n",
			want: "import pandas as pd",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCodeFromMarkdown(tt.text); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExtractIgnoresNonPythonBareFence(t *testing.T) {
	text := "```\nSELECT * FROM sales;\n```"
	got := ExtractCodeFromMarkdown(text)
	// Not recognizable as Python, so the whole text comes back.
	if !strings.Contains(got, "SELECT") {
		t.Errorf("got %q", got)
	}
}

func TestReplacePaths(t *testing.T) {
	code := "a = pd.read_csv(csv_files[0])\nb = pd.read_csv(csv_files[1])\ndf.to_csv(output_path)"
	got := ReplacePaths(code, []string{"/data/sales.csv", "/data/products.csv"}, "/out/result.csv")

	for _, want := range []string{`"/data/sales.csv"`, `"/data/products.csv"`, `"/out/result.csv"`} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in %q", want, got)
		}
	}
	if strings.Contains(got, "csv_files[") || strings.Contains(got, "output_path") {
		t.Errorf("placeholders remain: %q", got)
	}
}
