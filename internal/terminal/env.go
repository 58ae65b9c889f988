package terminal

import (
	"os"
	"strings"
)

// ciEnvVars are set by common CI systems.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"TRAVIS",
	"CIRCLECI",
	"JENKINS_URL",
	"BUILD_NUMBER",
	"GITLAB_CI",
	"APPVEYOR",
	"BUILDKITE",
	"DRONE",
	"TF_BUILD",
}

// colorTerminals lists TERM values (or prefixes before '-') that support ANSI color.
var colorTerminals = []string{
	"xterm",
	"screen",
	"tmux",
	"rxvt",
	"vt100",
	"vt220",
	"ansi",
	"linux",
	"cygwin",
	"putty",
}

func isTruthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// isCIEnvironment reports whether a CI variable is present. CI itself only
// counts when it is not an explicit false.
func isCIEnvironment() bool {
	for _, name := range ciEnvVars {
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if name == "CI" {
			switch strings.ToLower(strings.TrimSpace(value)) {
			case "false", "0", "no":
				continue
			}
		}
		return true
	}
	return false
}

func termSupportsColor(termName string) bool {
	termName = strings.ToLower(strings.TrimSpace(termName))
	if termName == "" || termName == "dumb" {
		return false
	}
	for _, t := range colorTerminals {
		if termName == t || strings.HasPrefix(termName, t+"-") {
			return true
		}
	}
	return false
}

// explicitColor returns the color setting forced by flags or the
// environment, and whether one applies.
func explicitColor(opts Options) (color, explicit bool) {
	switch {
	case opts.ForceColor:
		return true, true
	case opts.DisableColor:
		return false, true
	}
	if isTruthy(os.Getenv("CLICOLOR_FORCE")) {
		return true, true
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false, true
	}
	return false, false
}

func cliColorAllows() bool {
	v := os.Getenv("CLICOLOR")
	return v == "" || isTruthy(v)
}
