// Package project detects the project a hook runs in and caches the result.
//
// Detection:
//
// A project is identified by its directory. Detection reads the manifest
// files found there to produce:
//   - Project name (package.json, composer.json, Cargo.toml, pyproject.toml,
//     go.mod, pubspec.yaml, else the directory name)
//   - Project type (monorepo, library, single-repo)
//   - Package manager (from lock files)
//   - Framework (from manifest dependencies)
//   - Workspace packages (pnpm-workspace.yaml, package.json workspaces)
//
// The project ID is a name-based UUID of the absolute path, so it is stable
// across sessions without being stored anywhere.
//
// Caching:
//
// Detections are stored under .claude/project-contexts/{name}/ and reused
// until they are 24 hours old or a key file (package.json, go.mod, ...)
// changes size or modification time.
package project
