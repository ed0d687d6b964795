// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

// Program compack is a command-line utility for exchanging messages over
// compack channels.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/creachadair/command"
	"github.com/creachadair/compack"
	"github.com/creachadair/compack/channel"
	"github.com/creachadair/compack/peers"
	"github.com/creachadair/flax"
	"github.com/fsnotify/fsnotify"
	"github.com/olekukonko/tablewriter"
	"github.com/robfig/cron/v3"
)

var flags struct {
	Config  string `flag:"config,Configuration file (YAML)"`
	Server  string `flag:"server,Server directory or address"`
	User    string `flag:"user,User name"`
	Machine string `flag:"machine,Override the machine name"`
	Debug   string `flag:"debug,Debug log verbosity (0 disables)"`
}

var sendFlags struct {
	Sync    bool   `flag:"sync,Wait for a reply from the recipient"`
	Timeout string `flag:"timeout,Reply timeout in milliseconds"`
	Subject string `flag:"subject,Message subject"`
}

var listenFlags struct {
	ACK  string        `flag:"ack,Reply to synchronous messages with this code"`
	Once bool          `flag:"once,Exit after the first message"`
	Poll time.Duration `flag:"poll,default=1s,Poll interval when no change is observed"`
}

var sweepFlags struct {
	Dir string `flag:"dir,Log directory (default: LOGDIR or the temp directory)"`
}

var log = slog.New(slog.NewTextHandler(os.Stderr, nil))

func main() {
	root := &command.C{
		Name:     filepath.Base(os.Args[0]),
		Help:     "Exchange messages over compack channels.",
		SetFlags: command.Flags(flax.MustBind, &flags),
		Commands: []*command.C{
			{
				Name:     "send",
				Usage:    "<address> <body>...",
				Help:     "Send a message to the contact at address.",
				SetFlags: command.Flags(flax.MustBind, &sendFlags),
				Run:      runSend,
			},
			{
				Name:     "listen",
				Help:     "Print messages as they arrive.",
				SetFlags: command.Flags(flax.MustBind, &listenFlags),
				Run:      runListen,
			},
			{
				Name: "contacts",
				Help: "List the contacts visible to the channel.",
				Run:  runContacts,
			},
			{
				Name:     "sweep",
				Help:     "Delete debug logs from previous days.",
				SetFlags: command.Flags(flax.MustBind, &sweepFlags),
				Run:      runSweep,
			},
			{
				Name:  "serve",
				Usage: "<address>",
				Help: `Accept stream connections and print the messages they send.

The address is host:port for TCP, or a path for a Unix-domain socket.`,
				Run: runServe,
			},
			command.VersionCommand(),
			command.HelpCommand(nil),
		},
	}
	command.RunOrFail(root.NewEnv(nil).MergeFlags(true), os.Args[1:])
}

// config loads the configuration and applies the global flag overrides.
func config() (*Config, error) {
	cfg, err := loadConfig(flags.Config)
	if err != nil {
		return nil, err
	}
	cfg.set(string(compack.KeyServer), flags.Server)
	cfg.set(string(compack.KeyUserName), flags.User)
	cfg.set(string(compack.KeyMachine), flags.Machine)
	cfg.set(string(compack.KeyDebug), flags.Debug)
	return cfg, nil
}

// openChannel constructs, opens and logs in the configured channel.
func openChannel(extra map[string]string) (compack.Channel, error) {
	cfg, err := config()
	if err != nil {
		return nil, err
	}
	for k, v := range extra {
		cfg.set(k, v)
	}
	ch, err := cfg.newChannel()
	if err != nil {
		return nil, err
	}
	if err := ch.Open(); err != nil {
		return nil, err
	}
	if err := ch.LogIn(ch.Core().Settings.UserName, ""); err != nil {
		ch.Close()
		return nil, err
	}
	return ch, nil
}

func runSend(env *command.Env) error {
	if len(env.Args) < 2 {
		return env.Usagef("missing address and message body")
	}
	extra := map[string]string{string(compack.KeyTimeout): sendFlags.Timeout}
	if sendFlags.Sync {
		extra[string(compack.KeyAsync)] = "false"
	}
	ch, err := openChannel(extra)
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.CreateMessage(env.Args[0], strings.Join(env.Args[1:], " "), sendFlags.Subject); err != nil {
		return err
	}
	serr := ch.SendMessage()
	if sendFlags.Sync && ch.Core().Current() != nil {
		fmt.Println(display(compack.NextMessage(ch)))
	}
	return serr
}

func runListen(env *command.Env) error {
	ackCode := -1
	if listenFlags.ACK != "" {
		v, err := strconv.Atoi(listenFlags.ACK)
		if err != nil {
			return env.Usagef("invalid --ack code: %v", err)
		}
		ackCode = v
	}
	ch, err := openChannel(nil)
	if err != nil {
		return err
	}
	defer ch.Close()
	core := ch.Core()

	ctx, cancel := signal.NotifyContext(env.Context(), os.Interrupt)
	defer cancel()

	// Sweep old debug logs daily while listening.
	sched := cron.New()
	logDir := logDirectory(core)
	if _, err := sched.AddFunc("@daily", func() {
		if n, err := compack.SweepLogs(logDir, time.Now()); err != nil {
			log.Warn("log sweep failed", "dir", logDir, "err", err)
		} else if n != 0 {
			log.Info("swept old logs", "dir", logDir, "removed", n)
		}
	}); err != nil {
		return err
	}
	sched.Start()
	defer func() { <-sched.Stop().Done() }()

	wake := watchServer(ctx, core)
	log.Info("listening", "kind", core.Kind, "server", core.Settings.Server, "user", core.Settings.UserName)
	for {
		for ch.MessagesWaiting() > 0 && ch.GetMessage() {
			m := core.Current()
			fmt.Println(display(compack.FormatMessage(m, core.Settings.MsgFormat)))
			if ackCode >= 0 && !m.Async {
				if err := ch.ACKMessage(ackCode); err != nil {
					log.Warn("reply failed", "err", err)
				}
			}
			core.SetCurrent(nil)
			if listenFlags.Once {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-wake:
		case <-time.After(listenFlags.Poll):
		}
	}
}

// watchServer reports on the returned channel whenever a file is created in
// the server directory of a file channel. For other channels, or if the
// directory cannot be watched, the returned channel never delivers.
func watchServer(ctx context.Context, core *compack.Core) <-chan struct{} {
	wake := make(chan struct{}, 1)
	if core.Kind != "file" {
		return wake
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		log.Warn("cannot watch server", "err", err)
		return wake
	}
	if err := w.Add(core.Settings.Server); err != nil {
		w.Close()
		log.Warn("cannot watch server", "dir", core.Settings.Server, "err", err)
		return wake
	}
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&fsnotify.Create == fsnotify.Create && filepath.Ext(ev.Name) == channel.ExtUnread {
					select {
					case wake <- struct{}{}:
					default:
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watch error", "err", err)
			}
		}
	}()
	return wake
}

func runContacts(env *command.Env) error {
	ch, err := openChannel(nil)
	if err != nil {
		return err
	}
	defer ch.Close()

	ch.GetContactList()
	tab := tablewriter.NewWriter(os.Stdout)
	tab.SetHeader([]string{"User", "Machine", "Instance", "Key", "Status"})
	tab.SetAutoFormatHeaders(false)
	tab.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range ch.Core().Contacts.List() {
		status := "online"
		if r.OffLine {
			status = "offline"
		}
		tab.Append([]string{r.Name, r.MachineID, r.Address, r.Key, status})
	}
	tab.Render()
	return nil
}

func runSweep(env *command.Env) error {
	dir := sweepFlags.Dir
	if dir == "" {
		cfg, err := config()
		if err != nil {
			return err
		}
		dir = cfg.Settings[string(compack.KeyLogDir)]
	}
	if dir == "" {
		dir = os.TempDir()
	}
	n, err := compack.SweepLogs(dir, time.Now())
	fmt.Printf("removed %d log files from %s\n", n, dir)
	return err
}

func runServe(env *command.Env) error {
	if len(env.Args) != 1 {
		return env.Usagef("missing listen address")
	}
	cfg, err := config()
	if err != nil {
		return err
	}
	lst, err := net.Listen(compack.SplitAddress(env.Args[0]))
	if err != nil {
		return err
	}
	defer lst.Close()

	ctx, cancel := signal.NotifyContext(env.Context(), os.Interrupt)
	defer cancel()
	log.Info("serving", "addr", lst.Addr().String())

	var μ sync.Mutex // serializes output
	return peers.Loop(ctx, peers.NetAccepter(lst), func(s *channel.Stream) error {
		if err := cfg.apply(s.Core()); err != nil {
			return err
		}
		if user := s.Core().Settings.UserName; user != "" {
			return s.LogIn(user, "")
		}
		return nil
	}, func(ctx context.Context, s *channel.Stream) error {
		core := s.Core()
		for {
			for s.GetMessage() {
				m := core.TakeCurrent()
				μ.Lock()
				fmt.Println(display(compack.FormatMessage(m, core.Settings.MsgFormat)))
				μ.Unlock()
			}
			select {
			case <-ctx.Done():
				return nil
			case <-s.Done():
				if s.MessagesWaiting() == 0 {
					return nil
				}
			case <-time.After(50 * time.Millisecond):
			}
		}
	})
}

// logDirectory reports the directory where core writes its debug logs.
func logDirectory(core *compack.Core) string {
	if core.Settings.LogDir != "" {
		return core.Settings.LogDir
	}
	return os.TempDir()
}

// display converts the carriage returns separating message fields to
// newlines for terminal output.
func display(s string) string { return strings.ReplaceAll(s, "\r", "\n") }
