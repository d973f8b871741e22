package project

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Common errors.
var (
	ErrEmptyProjectName = errors.New("project name cannot be empty")
	ErrEmptyProjectPath = errors.New("project path cannot be empty")
	ErrNotDirectory     = errors.New("project path is not a directory")
)

// Project types.
const (
	TypeMonorepo   = "monorepo"
	TypeLibrary    = "library"
	TypeSingleRepo = "single-repo"
)

// DetectionVersion is stored with every cached detection.
const DetectionVersion = "2.0.0"

// projectNamespace scopes name-based project IDs.
var projectNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/aurafrog/aura-frog/project"))

// Detection is the result of inspecting a project directory.
type Detection struct {
	// ID is a UUID derived from the absolute project path.
	ID string `json:"project_id"`

	// Name is the human-readable project name.
	Name string `json:"project_name"`

	// Path is the absolute project directory.
	Path string `json:"path"`

	Type           string   `json:"project_type"`
	PackageManager string   `json:"package_manager,omitempty"`
	Framework      string   `json:"framework,omitempty"`
	Workspaces     []string `json:"workspaces,omitempty"`

	// DetectedAt is when the detection ran.
	DetectedAt time.Time `json:"detected_at"`

	// KeyFilesHash fingerprints the key files at detection time.
	KeyFilesHash string `json:"key_files_hash"`

	Version string `json:"version"`
}

// ProjectID returns the stable ID for an absolute project path.
func ProjectID(absPath string) string {
	return uuid.NewSHA1(projectNamespace, []byte(filepath.Clean(absPath))).String()
}

// Detect inspects dir. It never fails on unreadable or malformed manifests;
// those are skipped.
func Detect(dir string) (*Detection, error) {
	if dir == "" {
		return nil, ErrEmptyProjectPath
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	return &Detection{
		ID:             ProjectID(abs),
		Name:           DetectName(abs),
		Path:           abs,
		Type:           DetectType(abs),
		PackageManager: DetectPackageManager(abs),
		Framework:      DetectFramework(abs),
		Workspaces:     DetectWorkspaces(abs),
		DetectedAt:     time.Now().UTC(),
		KeyFilesHash:   KeyFilesHash(abs),
		Version:        DetectionVersion,
	}, nil
}

type packageJSON struct {
	Name            string            `json:"name"`
	Main            string            `json:"main"`
	Bin             json.RawMessage   `json:"bin"`
	Exports         json.RawMessage   `json:"exports"`
	Workspaces      json.RawMessage   `json:"workspaces"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

type composerJSON struct {
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Require    map[string]string `json:"require"`
	RequireDev map[string]string `json:"require-dev"`
}

type cargoTOML struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

type pyprojectTOML struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type pubspecYAML struct {
	Name string `yaml:"name"`
}

type pnpmWorkspaceYAML struct {
	Packages []string `yaml:"packages"`
}

var (
	npmScope     = regexp.MustCompile(`^@[^/]+/`)
	goModuleLine = regexp.MustCompile(`(?m)^module\s+(\S+)`)
)

// DetectName returns the project name from the first manifest that declares
// one, falling back to the directory name.
func DetectName(dir string) string {
	var pkg packageJSON
	if readJSON(filepath.Join(dir, "package.json"), &pkg) && pkg.Name != "" {
		return npmScope.ReplaceAllString(pkg.Name, "")
	}

	var composer composerJSON
	if readJSON(filepath.Join(dir, "composer.json"), &composer) && composer.Name != "" {
		return lastSegment(composer.Name)
	}

	var cargo cargoTOML
	if _, err := toml.DecodeFile(filepath.Join(dir, "Cargo.toml"), &cargo); err == nil && cargo.Package.Name != "" {
		return cargo.Package.Name
	}

	var py pyprojectTOML
	if _, err := toml.DecodeFile(filepath.Join(dir, "pyproject.toml"), &py); err == nil {
		if py.Project.Name != "" {
			return py.Project.Name
		}
		if py.Tool.Poetry.Name != "" {
			return py.Tool.Poetry.Name
		}
	}

	if data, err := os.ReadFile(filepath.Join(dir, "go.mod")); err == nil {
		if m := goModuleLine.FindSubmatch(data); m != nil {
			return lastSegment(string(m[1]))
		}
	}

	var pubspec pubspecYAML
	if readYAML(filepath.Join(dir, "pubspec.yaml"), &pubspec) && pubspec.Name != "" {
		return pubspec.Name
	}

	return filepath.Base(dir)
}

var monorepoMarkers = []string{"pnpm-workspace.yaml", "lerna.json", "nx.json", "turbo.json", "rush.json", "go.work"}

// DetectType classifies dir as a monorepo, a library or a single repo.
func DetectType(dir string) string {
	for _, marker := range monorepoMarkers {
		if exists(filepath.Join(dir, marker)) {
			return TypeMonorepo
		}
	}

	var pkg packageJSON
	if readJSON(filepath.Join(dir, "package.json"), &pkg) {
		if len(pkg.Workspaces) > 0 {
			return TypeMonorepo
		}
		if pkg.Main != "" || len(pkg.Exports) > 0 || len(pkg.Bin) > 0 {
			return TypeLibrary
		}
	}

	var composer composerJSON
	if readJSON(filepath.Join(dir, "composer.json"), &composer) && composer.Type == "library" {
		return TypeLibrary
	}

	if exists(filepath.Join(dir, "pyproject.toml")) || exists(filepath.Join(dir, "setup.py")) {
		return TypeLibrary
	}
	return TypeSingleRepo
}

// lockFiles maps lock files to package managers in precedence order.
var lockFiles = []struct{ file, manager string }{
	{"bun.lockb", "bun"},
	{"pnpm-lock.yaml", "pnpm"},
	{"yarn.lock", "yarn"},
	{"package-lock.json", "npm"},
	{"composer.lock", "composer"},
	{"poetry.lock", "poetry"},
	{"Pipfile.lock", "pipenv"},
	{"requirements.txt", "pip"},
	{"uv.lock", "uv"},
	{"go.sum", "go"},
	{"Cargo.lock", "cargo"},
	{"Gemfile.lock", "bundler"},
}

// DetectPackageManager returns the package manager implied by lock files,
// or "" when none is present.
func DetectPackageManager(dir string) string {
	for _, lf := range lockFiles {
		if exists(filepath.Join(dir, lf.file)) {
			return lf.manager
		}
	}
	return ""
}

type jsFramework struct {
	deps []string
	name string
}

// jsFrameworks lists dependency names in precedence order: meta-frameworks,
// mobile, frontend, backend.
var jsFrameworks = []jsFramework{
	{[]string{"next"}, "nextjs"},
	{[]string{"nuxt"}, "nuxt"},
	{[]string{"@remix-run/node", "@remix-run/react"}, "remix"},
	{[]string{"astro"}, "astro"},
	{[]string{"@sveltejs/kit"}, "sveltekit"},
	{[]string{"react-native"}, "react-native"},
	{[]string{"expo"}, "expo"},
	{[]string{"vue"}, "vue"},
	{[]string{"react"}, "react"},
	{[]string{"svelte"}, "svelte"},
	{[]string{"@angular/core"}, "angular"},
	{[]string{"@nestjs/core"}, "nestjs"},
	{[]string{"express"}, "express"},
	{[]string{"fastify"}, "fastify"},
	{[]string{"hono"}, "hono"},
	{[]string{"elysia"}, "elysia"},
}

var phpFrameworks = []struct{ dep, name string }{
	{"laravel/framework", "laravel"},
	{"symfony/framework-bundle", "symfony"},
	{"slim/slim", "slim"},
}

var pythonFrameworks = []string{"django", "fastapi", "flask"}

// DetectFramework returns the primary framework from manifest dependencies,
// or "" when none is recognized.
func DetectFramework(dir string) string {
	var pkg packageJSON
	if readJSON(filepath.Join(dir, "package.json"), &pkg) {
		for _, fw := range jsFrameworks {
			for _, dep := range fw.deps {
				if hasDep(dep, pkg.Dependencies, pkg.DevDependencies) {
					return fw.name
				}
			}
		}
		return ""
	}

	var composer composerJSON
	if readJSON(filepath.Join(dir, "composer.json"), &composer) {
		for _, fw := range phpFrameworks {
			if hasDep(fw.dep, composer.Require, composer.RequireDev) {
				return fw.name
			}
		}
		return ""
	}

	for _, file := range []string{"requirements.txt", "pyproject.toml"} {
		data, err := os.ReadFile(filepath.Join(dir, file))
		if err != nil {
			continue
		}
		lower := strings.ToLower(string(data))
		for _, fw := range pythonFrameworks {
			if strings.Contains(lower, fw) {
				return fw
			}
		}
	}
	return ""
}

// DetectWorkspaces returns the workspace package globs of a monorepo.
func DetectWorkspaces(dir string) []string {
	var pnpm pnpmWorkspaceYAML
	if readYAML(filepath.Join(dir, "pnpm-workspace.yaml"), &pnpm) && len(pnpm.Packages) > 0 {
		return pnpm.Packages
	}

	var pkg packageJSON
	if !readJSON(filepath.Join(dir, "package.json"), &pkg) || len(pkg.Workspaces) == 0 {
		return nil
	}
	// workspaces is either a list or {"packages": [...]}.
	var list []string
	if err := json.Unmarshal(pkg.Workspaces, &list); err == nil {
		return list
	}
	var obj struct {
		Packages []string `json:"packages"`
	}
	if err := json.Unmarshal(pkg.Workspaces, &obj); err == nil {
		return obj.Packages
	}
	return nil
}

func hasDep(name string, sets ...map[string]string) bool {
	for _, s := range sets {
		if _, ok := s[name]; ok {
			return true
		}
	}
	return false
}

func lastSegment(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func readYAML(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return yaml.Unmarshal(data, v) == nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
