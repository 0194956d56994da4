package logging

import (
	"regexp"
	"strings"
)

// LoggerPatternConfig sets the level of every logger whose name matches Pattern. Patterns are
// dotted logger names where a "*" section matches anything, e.g. "voxnav.*" or "*.navigator".
type LoggerPatternConfig struct {
	Pattern string `json:"pattern"`
	Level   string `json:"level"`
}

const (
	// e.g. "foo".
	validLoggerSectionName = `[a-zA-Z0-9]+([_-]*[a-zA-Z0-9]+)*`
	// e.g. "foo" or "*".
	validLoggerSectionNameWithWildcard = `(` + validLoggerSectionName + `|\*)`
	// e.g. "foo.*.foo".
	validLoggerSectionsWithWildcard = validLoggerSectionNameWithWildcard + `(\.` + validLoggerSectionNameWithWildcard + `)*`
	validLoggerName                 = `^` + validLoggerSectionsWithWildcard + `$`
)

var loggerPatternRegexp = regexp.MustCompile(validLoggerName)

// ValidatePattern reports whether pattern is a well formed logger name pattern.
func ValidatePattern(pattern string) bool {
	return loggerPatternRegexp.MatchString(pattern)
}

func buildRegexFromPattern(pattern string) string {
	var matcher strings.Builder
	matcher.WriteRune('^')
	for _, ch := range pattern {
		switch ch {
		case '*':
			matcher.WriteString(`.*`)
		case '.':
			matcher.WriteString(`\.`)
		default:
			matcher.WriteRune(ch)
		}
	}
	matcher.WriteRune('$')
	return matcher.String()
}

type compiledPattern struct {
	re    *regexp.Regexp
	level Level
}

func compilePatterns(logConfig []LoggerPatternConfig) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(logConfig))
	for _, lpc := range logConfig {
		re, err := regexp.Compile(buildRegexFromPattern(lpc.Pattern))
		if err != nil {
			return nil, err
		}
		level, err := LevelFromString(lpc.Level)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{re: re, level: level})
	}
	return compiled, nil
}
