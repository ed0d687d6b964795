// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creachadair/compack/channel"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "compack.yaml")
	writeFile(t, path, `type: File
settings:
  server: /var/spool/compack
  username: alice
  timeout: "5000"
`)
	writeFile(t, filepath.Join(dir, ".env"), "COMPACK_NICK=ally\n")
	t.Cleanup(func() { os.Unsetenv("COMPACK_NICK") })
	t.Setenv("COMPACK_TIMEOUT", "250")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if cfg.Type != "file" {
		t.Errorf("Type: got %q, want file", cfg.Type)
	}
	cfg.set("machine", "M1")
	cfg.set("debug", "")

	ch, err := cfg.newChannel()
	if err != nil {
		t.Fatalf("newChannel: unexpected error: %v", err)
	}
	if _, ok := ch.(*channel.File); !ok {
		t.Errorf("newChannel: got %T, want *channel.File", ch)
	}
	s := ch.Core().Settings
	if s.Server != "/var/spool/compack" || s.UserName != "alice" || s.Machine != "M1" {
		t.Errorf("Settings: got server %q user %q machine %q", s.Server, s.UserName, s.Machine)
	}
	if s.Nick != "ally" {
		t.Errorf("Nick: got %q, want ally (from .env)", s.Nick)
	}
	if s.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout: got %v, want 250ms (from environment)", s.Timeout)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if _, err := loadConfig(filepath.Join(dir, "nonesuch.yaml")); err == nil {
		t.Error("loadConfig(missing): got nil error")
	}

	bad := filepath.Join(dir, "bad.yaml")
	for _, text := range []string{
		"type: irc\n",
		"type: ''\n",
		"settings: [not, a, map]\n",
	} {
		writeFile(t, bad, text)
		if cfg, err := loadConfig(bad); err == nil {
			t.Errorf("loadConfig(%q): got %+v, want error", text, cfg)
		}
	}

	unknown := filepath.Join(dir, "unknown.yaml")
	writeFile(t, unknown, "type: stream\nsettings:\n  colour: blue\n")
	cfg, err := loadConfig(unknown)
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	if _, err := cfg.newChannel(); err == nil {
		t.Error("newChannel: got nil error for an unknown setting")
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "compack.yaml")
	writeFile(t, path, `type: file
settings:
  server: /from/yaml
  logdir: /var/log/compack
  Room: lobby
`)
	t.Setenv("COMPACK_SERVER", "/from/env")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: unexpected error: %v", err)
	}
	cfg.set("username", "alice")

	want := map[string]string{
		"SERVER":   "/from/env",
		"LOGDIR":   "/var/log/compack",
		"CHANNEL":  "lobby",
		"USERNAME": "alice",
	}
	for k, v := range want {
		if got := cfg.Settings[k]; got != v {
			t.Errorf("Settings[%q]: got %q, want %q", k, got, v)
		}
	}
	for _, k := range []string{"server", "logdir", "Room", "username"} {
		if v, ok := cfg.Settings[k]; ok {
			t.Errorf("Settings[%q]: got %q, want no entry", k, v)
		}
	}

	ch, err := cfg.newChannel()
	if err != nil {
		t.Fatalf("newChannel: unexpected error: %v", err)
	}
	if s := ch.Core().Settings; s.Server != "/from/env" || s.LogDir != "/var/log/compack" {
		t.Errorf("Settings: got server %q logdir %q, want /from/env and /var/log/compack", s.Server, s.LogDir)
	}
}
