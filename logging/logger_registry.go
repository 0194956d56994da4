package logging

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/multierr"
)

// Registry tracks named loggers and the level patterns applied to them. Subloggers created
// after a pattern update start at the level of the last matching pattern.
type Registry struct {
	mu       sync.RWMutex
	loggers  map[string]Logger
	patterns []compiledPattern
	config   []LoggerPatternConfig
}

var globalLoggerRegistry = newRegistry()

func newRegistry() *Registry {
	return &Registry{
		loggers: make(map[string]Logger),
	}
}

func (lr *Registry) registerLogger(name string, logger Logger) {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	lr.loggers[name] = logger
	if level, ok := lr.levelForLocked(name); ok {
		logger.SetLevel(level)
	}
}

func (lr *Registry) deregisterLogger(name string) bool {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	_, ok := lr.loggers[name]
	if ok {
		delete(lr.loggers, name)
	}
	return ok
}

func (lr *Registry) loggerNamed(name string) (logger Logger, ok bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok = lr.loggers[name]
	return
}

func (lr *Registry) levelFor(name string) (Level, bool) {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.levelForLocked(name)
}

// the last matching pattern wins.
func (lr *Registry) levelForLocked(name string) (Level, bool) {
	var (
		level Level
		found bool
	)
	for _, p := range lr.patterns {
		if p.re.MatchString(name) {
			level, found = p.level, true
		}
	}
	return level, found
}

func (lr *Registry) updateLoggerLevel(name string, level Level) error {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	logger, ok := lr.loggers[name]
	if !ok {
		return fmt.Errorf("logger named %s not recognized", name)
	}
	logger.SetLevel(level)
	return nil
}

// UpdateConfig replaces the level patterns and re-levels every registered logger. Loggers no
// pattern matches go back to INFO. Invalid patterns are skipped with a warning.
func (lr *Registry) UpdateConfig(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	valid := make([]LoggerPatternConfig, 0, len(logConfig))
	for _, lpc := range logConfig {
		if !ValidatePattern(lpc.Pattern) {
			if errorLogger != nil {
				errorLogger.Warnw("failed to validate a pattern", "pattern", lpc.Pattern)
			}
			continue
		}
		valid = append(valid, lpc)
	}
	compiled, err := compilePatterns(valid)
	if err != nil {
		return err
	}

	lr.mu.Lock()
	lr.patterns = compiled
	lr.config = valid
	lr.mu.Unlock()

	var errs error
	for _, name := range lr.getRegisteredLoggerNames() {
		level, ok := lr.levelFor(name)
		if !ok {
			level = INFO
		}
		errs = multierr.Append(errs, lr.updateLoggerLevel(name, level))
	}
	return errs
}

func (lr *Registry) getRegisteredLoggerNames() []string {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	registeredNames := make([]string, 0, len(lr.loggers))
	for name := range lr.loggers {
		registeredNames = append(registeredNames, name)
	}
	sort.Strings(registeredNames)
	return registeredNames
}

func (lr *Registry) getCurrentConfig() []LoggerPatternConfig {
	lr.mu.RLock()
	defer lr.mu.RUnlock()
	return lr.config
}

// RegisterLogger registers a logger with the global registry under name and applies any
// matching level pattern to it.
func RegisterLogger(name string, logger Logger) {
	globalLoggerRegistry.registerLogger(name, logger)
}

// DeregisterLogger removes name from the global registry.
func DeregisterLogger(name string) bool {
	return globalLoggerRegistry.deregisterLogger(name)
}

// LoggerNamed returns the logger registered under name, if any.
func LoggerNamed(name string) (Logger, bool) {
	return globalLoggerRegistry.loggerNamed(name)
}

// UpdateLoggerLevel sets the level of the logger registered under name.
func UpdateLoggerLevel(name string, level Level) error {
	return globalLoggerRegistry.updateLoggerLevel(name, level)
}

// GetRegisteredLoggerNames returns the sorted names of every registered logger.
func GetRegisteredLoggerNames() []string {
	return globalLoggerRegistry.getRegisteredLoggerNames()
}

// UpdateLoggerPatterns replaces the global level patterns.
func UpdateLoggerPatterns(logConfig []LoggerPatternConfig, errorLogger Logger) error {
	return globalLoggerRegistry.UpdateConfig(logConfig, errorLogger)
}

// GetCurrentPatterns returns the patterns last accepted by UpdateLoggerPatterns.
func GetCurrentPatterns() []LoggerPatternConfig {
	return globalLoggerRegistry.getCurrentConfig()
}
