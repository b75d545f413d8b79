package cheese

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Options configure Start. They replace what used to be process-wide state:
// the verbose flag, the log file handle and the single-instance check.
type Options struct {
	Verbose   bool   // Also write log messages to Stdout.
	Device    string // Device node to use, e.g. /dev/video0. If empty, the first device found.
	ConfigDir string // Directory with ConfigFile. Defaults to $XDG_CONFIG_HOME/cheese.
	DataDir   string // Directory for the log file and lock. Defaults to $XDG_CACHE_HOME/cheese.

	// Log, if set, receives log messages instead of the log file in DataDir.
	Log io.Writer

	// Stdout is where verbose output goes, os.Stdout if nil.
	Stdout io.Writer

	// SkipLock disables the single-instance lock.
	SkipLock bool
}

// App is the started application state, shared by the commands.
type App struct {
	Opts   Options
	Config Config
	Log    *log.Logger

	logFile *os.File
	lock    *InstanceLock
}

// Start loads the configuration, opens the log sink and takes the
// single-instance lock.
//
// Callers must call Close to clean up.
func Start(opts Options) (app *App, rerr error) {
	if opts.ConfigDir == "" || opts.DataDir == "" {
		cfg, cache, err := defaultDirs()
		if err != nil {
			return nil, err
		}
		if opts.ConfigDir == "" {
			opts.ConfigDir = cfg
		}
		if opts.DataDir == "" {
			opts.DataDir = cache
		}
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	a := &App{Opts: opts}
	defer func() {
		if rerr != nil {
			a.Close()
		}
	}()

	c, err := LoadConfig(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	a.Config = c

	// The lock comes first: a rejected second instance must not truncate
	// the log of the running one.
	if !opts.SkipLock {
		l, err := Lock(opts.DataDir)
		if err != nil {
			return nil, err
		}
		a.lock = l
	}

	w := opts.Log
	if w == nil {
		f, err := OpenLogFile(opts.DataDir)
		if err != nil {
			return nil, err
		}
		a.logFile = f
		w = f
	}
	if opts.Verbose {
		w = io.MultiWriter(w, opts.Stdout)
	}
	a.Log = log.New(w, "", log.LstdFlags)
	return a, nil
}

// Logf logs to the application log sink.
func (a *App) Logf(format string, args ...interface{}) {
	a.Log.Printf(format, args...)
}

// Close releases the lock and closes the log file.
func (a *App) Close() error {
	var err error
	if a.lock != nil {
		err = a.lock.Unlock()
		a.lock = nil
	}
	if a.logFile != nil {
		if cerr := a.logFile.Close(); err == nil {
			err = cerr
		}
		a.logFile = nil
	}
	return err
}

// OpenLogFile creates (truncating) the file "log" in dir, making dir if needed.
func OpenLogFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("making log dir: %w", err)
	}
	f, err := os.Create(filepath.Join(dir, "log"))
	if err != nil {
		return nil, fmt.Errorf("creating log file: %w", err)
	}
	return f, nil
}

func defaultDirs() (config, cache string, err error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", "", fmt.Errorf("finding config dir: %w", err)
	}
	c, err := os.UserCacheDir()
	if err != nil {
		return "", "", fmt.Errorf("finding cache dir: %w", err)
	}
	return filepath.Join(cfg, "cheese"), filepath.Join(c, "cheese"), nil
}
