package adapter

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// ErrNoPlayer indicates no candidate player could be started
var ErrNoPlayer = errors.New("no candidate players found")

// Launcher launches media URLs in an external player
type Launcher struct {
	command   string   // configured player command, empty for auto-detect
	args      []string // additional arguments for the player
	titleFlag string   // window title flag prefix, e.g., "--force-media-title="
	logger    *slog.Logger
}

// launchPath defines a single way to launch a player
type launchPath struct {
	path      string   // Command path: "/usr/bin/mpv", "vlc", or "open-a:AppName"
	openFlags []string // For "open-a:" paths only - flags for macOS open command (e.g., ["-n"])
}

// playerConfig defines platform-specific launch configurations for a player
type playerConfig struct {
	titleFlag string                  // Media title flag (e.g., "--force-media-title=")
	platforms map[string][]launchPath // Platform -> launch paths to try in order
}

// players registry - single source of truth for all player configuration
var players = map[string]playerConfig{
	"mpv": {
		titleFlag: "--force-media-title=",
		platforms: map[string][]launchPath{
			"darwin":  {{path: "mpv"}},
			"linux":   {{path: "mpv"}},
			"windows": {{path: "mpv"}},
		},
	},
	"vlc": {
		titleFlag: "--meta-title=",
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "vlc"},
				{path: "open-a:VLC"},
			},
			"linux":   {{path: "vlc"}},
			"windows": {{path: "vlc"}},
		},
	},
	"iina": {
		titleFlag: "--mpv-force-media-title=",
		platforms: map[string][]launchPath{
			"darwin": {
				{path: "open-a:IINA", openFlags: []string{"-n"}},
			},
		},
	},
	"celluloid": {
		titleFlag: "--mpv-force-media-title=",
		platforms: map[string][]launchPath{
			"linux": {{path: "celluloid"}},
		},
	},
	"potplayer": {
		titleFlag: "/title=",
		platforms: map[string][]launchPath{
			"windows": {{path: "PotPlayerMini64.exe"}, {path: "PotPlayerMini.exe"}},
		},
	},
}

// candidatePlayers defines the preferred player order for each platform
var candidatePlayers = map[string][]string{
	"darwin":  {"iina", "vlc", "mpv"},
	"linux":   {"mpv", "celluloid", "vlc"},
	"windows": {"vlc", "mpv", "potplayer"},
}

// Process is a launched player. Detached processes (macOS "open -a",
// xdg-open) exit as soon as the hand-off completes, so their exit status
// says nothing about playback.
type Process struct {
	Player   string
	Detached bool

	cmd      *exec.Cmd
	done     chan struct{}
	err      error
	killOnce sync.Once
}

// startProcess starts cmd and reaps it in the background
func startProcess(player string, detached bool, cmd *exec.Cmd) (*Process, error) {
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	p := &Process{
		Player:   player,
		Detached: detached,
		cmd:      cmd,
		done:     make(chan struct{}),
	}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Done is closed when the process exits
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error; only meaningful after Done is closed
func (p *Process) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

// IsDetached reports whether the exit status is meaningless for playback
func (p *Process) IsDetached() bool {
	return p.Detached
}

// Kill terminates the process. Safe to call repeatedly and after exit.
func (p *Process) Kill() error {
	var err error
	p.killOnce.Do(func() {
		select {
		case <-p.done:
			return
		default:
		}
		if p.cmd.Process != nil {
			err = p.cmd.Process.Kill()
		}
	})
	return err
}

// NewLauncher creates a new Launcher, auto-detecting the title flag of known players
func NewLauncher(command string, args []string, logger *slog.Logger) *Launcher {
	if logger == nil {
		logger = slog.Default()
	}

	var titleFlag string
	if command != "" {
		if cfg, ok := players[playerName(command)]; ok {
			titleFlag = cfg.titleFlag
			logger.Debug("auto-detected player title flag", "player", playerName(command), "flag", titleFlag)
		}
	}

	return &Launcher{
		command:   command,
		args:      args,
		titleFlag: titleFlag,
		logger:    logger,
	}
}

// playerName normalises a command path to a registry key
func playerName(command string) string {
	base := filepath.Base(command)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ToLower(base)
}

// titleArgs builds the title argument for a flag, if any
func titleArgs(flag, title string) []string {
	if flag == "" || title == "" {
		return nil
	}
	return []string{flag + title}
}

// openWithAppCmd builds a macOS "open -a" invocation
func openWithAppCmd(appName string, url string, playerArgs []string, openFlags []string) *exec.Cmd {
	// Copy openFlags to avoid modifying the original slice
	cmdArgs := make([]string, len(openFlags))
	copy(cmdArgs, openFlags)

	cmdArgs = append(cmdArgs, "-a", appName)
	if len(playerArgs) > 0 {
		cmdArgs = append(cmdArgs, "--args")
		cmdArgs = append(cmdArgs, playerArgs...)
	}
	cmdArgs = append(cmdArgs, url)

	return exec.Command("open", cmdArgs...)
}

// detectAndLaunch tries candidate players in order using configured launch paths
func (l *Launcher) detectAndLaunch(url, title string) (*Process, error) {
	candidates, ok := candidatePlayers[runtime.GOOS]
	if !ok {
		candidates = candidatePlayers["linux"] // default
	}

	for _, name := range candidates {
		player, exists := players[name]
		if !exists {
			continue
		}

		launchPaths, ok := player.platforms[runtime.GOOS]
		if !ok {
			continue
		}

		args := append(append([]string{}, l.args...), titleArgs(player.titleFlag, title)...)

		for _, lp := range launchPaths {
			var (
				proc *Process
				err  error
			)

			if strings.HasPrefix(lp.path, "open-a:") {
				appName := strings.TrimPrefix(lp.path, "open-a:")
				cmd := openWithAppCmd(appName, url, args, lp.openFlags)
				// "open" fails fast when the app is missing, so wait for it
				if err = cmd.Run(); err == nil {
					proc = &Process{Player: name, Detached: true, cmd: cmd, done: closedChan()}
				}
			} else if _, err = exec.LookPath(lp.path); err == nil {
				proc, err = startProcess(name, false, exec.Command(lp.path, append(args, url)...))
			}

			if err == nil {
				l.logger.Info("launched with detected player", "player", name, "path", lp.path)
				return proc, nil
			}

			l.logger.Debug("launch path not available", "player", name, "path", lp.path, "error", err)
		}
	}

	return nil, ErrNoPlayer
}

// Launch opens a media URL in the configured player, a detected player,
// or the system default, in that order.
func (l *Launcher) Launch(url, title string) (*Process, error) {
	// Tier 1: User configured a specific player
	if l.command != "" {
		l.logger.Info("using configured player", "command", l.command)
		return l.launchConfigured(url, title)
	}

	// Tier 2: Try candidate chain (IINA → VLC → mpv on macOS, etc.)
	if proc, err := l.detectAndLaunch(url, title); err == nil {
		return proc, nil
	}

	// Tier 3: Fall back to system default (open/xdg-open/start)
	l.logger.Info("no candidate players found, using system default")
	return l.OpenDefault(url)
}

// launchConfigured launches the media using the configured player
func (l *Launcher) launchConfigured(url, title string) (*Process, error) {
	args := append(append([]string{}, l.args...), titleArgs(l.titleFlag, title)...)

	l.logger.Info("launching player", "command", l.command, "args", args, "url", url)

	// On macOS, try to launch GUI apps with 'open -a' if command not in PATH
	if runtime.GOOS == "darwin" {
		if _, err := exec.LookPath(l.command); err != nil {
			var openFlags []string
			if cfg, ok := players[playerName(l.command)]; ok {
				for _, lp := range cfg.platforms["darwin"] {
					if strings.HasPrefix(lp.path, "open-a:") {
						openFlags = lp.openFlags
						break
					}
				}
			}
			cmd := openWithAppCmd(l.command, url, args, openFlags)
			l.logger.Info("using macOS 'open -a' to launch GUI app", "app", l.command, "args", cmd.Args)
			return startProcess(l.command, true, cmd)
		}
	}

	// For direct command execution, URL goes at the end
	cmd := exec.Command(l.command, append(args, url)...)
	proc, err := startProcess(playerName(l.command), false, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", l.command, err)
	}
	return proc, nil
}

// OpenDefault opens the URL using the system default handler
func (l *Launcher) OpenDefault(url string) (*Process, error) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", url)
	default:
		// Linux and other Unix-like systems
		cmd = exec.Command("xdg-open", url)
	}

	l.logger.Info("launching with system default", "os", runtime.GOOS, "url", url)

	return startProcess("default", true, cmd)
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
