package config

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/go-git/go-git/v5"
)

const keyPrefix = "scm."

// gitConfigMock allows tests to mock git config output.
var gitConfigMock func(args []string, repoPath string) (string, error)

// runGitConfig executes git config command and returns raw output.
func runGitConfig(args []string, repoPath string) (string, error) {
	if gitConfigMock != nil {
		return gitConfigMock(args, repoPath)
	}

	cmd := exec.Command("git", args...)
	if repoPath != "" {
		cmd.Dir = repoPath
	}

	output, err := cmd.Output()
	if err != nil {
		// git config returns exit code 1 when no key matches
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", nil
		}
		return "", err
	}
	return string(output), nil
}

// parseGitConfigOutput parses git config output into multi-value map.
// Input format: "scm.cvs-path /usr/bin/cvs\nscm.filters *.o\n"
func parseGitConfigOutput(output string) map[string][]string {
	configMap := make(map[string][]string)
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			continue
		}

		key := normalizeKey(strings.TrimPrefix(parts[0], keyPrefix))
		configMap[key] = append(configMap[key], parts[1])
	}
	return configMap
}

// convertGitConfigToParseConfig converts to the format expected by applyConfig.
func convertGitConfigToParseConfig(gitCfg map[string][]string) map[string]any {
	result := make(map[string]any)

	for key, values := range gitCfg {
		if len(values) == 0 {
			continue
		}

		// Multi-value keys (repeated scm.filters) become lists
		if len(values) > 1 {
			anySlice := make([]any, len(values))
			for i, v := range values {
				anySlice[i] = v
			}
			result[key] = anySlice
			continue
		}

		result[key] = values[0]
	}

	return result
}

// loadGitConfig reads scm.* git config values.
func loadGitConfig(globalOnly bool, repoPath string) (map[string]any, error) {
	args := []string{"config", "--get-regexp", `^scm\.`}
	if globalOnly {
		args = append(args, "--global")
	} else {
		args = append(args, "--local")
	}

	output, err := runGitConfig(args, repoPath)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return make(map[string]any), nil
	}

	return convertGitConfigToParseConfig(parseGitConfigOutput(output)), nil
}

// isInGitRepo checks if path is inside a git repository.
func isInGitRepo(path string) bool {
	if path == "" {
		return false
	}
	_, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	return err == nil
}

// determineRepoPath returns repo path for local git config lookup.
func determineRepoPath() string {
	if wd, err := os.Getwd(); err == nil && isInGitRepo(wd) {
		return wd
	}
	return ""
}

// parseCLIConfigOverrides parses --config=scm.key=value format.
func parseCLIConfigOverrides(overrides []string) (map[string]any, error) {
	result := make(map[string]any)
	keyCount := make(map[string]int)

	for _, override := range overrides {
		parts := strings.SplitN(override, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config override: %q, expected format: scm.key=value (note: use = not space)", override)
		}

		fullKey, value := parts[0], parts[1]
		if !strings.HasPrefix(fullKey, keyPrefix) {
			return nil, fmt.Errorf("config override key must start with 'scm.': %q", fullKey)
		}

		key := normalizeKey(strings.TrimPrefix(fullKey, keyPrefix))
		if key == "" {
			return nil, fmt.Errorf("empty config key in override: %q", override)
		}

		keyCount[key]++
		switch keyCount[key] {
		case 1:
			result[key] = value
		case 2:
			result[key] = []any{result[key].(string), value}
		default:
			result[key] = append(result[key].([]any), value)
		}
	}

	return result, nil
}
