package smartlearn

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patternNames(ps []CodePattern) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.Key())
	}
	return out
}

func TestDetectCodePatterns(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{
			name: "arrow functions and const",
			file: "src/util.js",
			content: `const add = (a, b) => { return a + b }
const sub = (a, b) => { return a - b }
const one = 1`,
			want: []string{"style:arrow_functions", "style:prefer_const"},
		},
		{
			name:    "regular functions with let",
			file:    "src/util.js",
			content: "function add(a, b) { let x = a; return x + b }",
			want:    nil,
		},
		{
			name: "typescript annotations async and try",
			file: "api.ts",
			content: `async function load(id: string, n: number, ok: boolean, xs: Array<string>, o: object, a: any): Promise<void> {
  try { await fetch(id) } catch (e) {}
}`,
			want: []string{"style:async_await", "typing:explicit_types", "quality:error_handling"},
		},
		{
			name:    "annotations ignored in js",
			file:    "api.JS",
			content: "x: string; y: string; z: string; a: string; b: string; c: string",
			want:    nil,
		},
		{
			name:    "react hooks",
			file:    "App.tsx",
			content: "function App() { const [s, setS] = useState(0); return s }",
			want:    []string{"style:prefer_const", "framework:react_hooks"},
		},
		{
			name: "python hints and async",
			file: "svc.py",
			content: `async def a() -> int: ...
def b() -> str: ...
def c() -> None: ...`,
			want: []string{"typing:python_type_hints", "style:python_async"},
		},
		{
			name:    "unknown extension",
			file:    "README.md",
			content: "const x = () => { }",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, patternNames(DetectCodePatterns(tt.content, tt.file)))
		})
	}
}

func TestExtractBashPattern(t *testing.T) {
	assert.Nil(t, ExtractBashPattern("   "))

	p := ExtractBashPattern(`git commit -m "fix bug 42"   && git push`)
	require.NotNil(t, p)
	assert.Equal(t, "git", p.Base)
	assert.Equal(t, `git commit -m "" && git push`, p.Pattern)
	assert.True(t, p.HasChain)
	assert.False(t, p.HasPipe)

	p = ExtractBashPattern("go test ./... -count=1 | tee out.log")
	require.NotNil(t, p)
	assert.Equal(t, "go", p.Base)
	assert.Equal(t, "go test ./... -count=N | tee out.log", p.Pattern)
	assert.True(t, p.HasPipe)

	p = ExtractBashPattern("npm run " + strings.Repeat("a", 150))
	require.NotNil(t, p)
	assert.Len(t, p.Pattern, 100)
}

func TestIsIgnoredCommand(t *testing.T) {
	for _, cmd := range []string{"cd src", "ls -la", "echo hi", "cat go.mod"} {
		assert.True(t, IsIgnoredCommand(cmd), cmd)
	}
	for _, cmd := range []string{"git status", "npm test", "cdk deploy"} {
		assert.False(t, IsIgnoredCommand(cmd), cmd)
	}
}

func TestIsToolFailure(t *testing.T) {
	assert.True(t, IsToolFailure("Error: ENOENT"))
	assert.True(t, IsToolFailure("build failed"))
	assert.True(t, IsToolFailure("--- FAILED: TestX"))
	assert.False(t, IsToolFailure("ok  github.com/x 0.2s"))
}
