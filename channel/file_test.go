// Copyright (C) 2026 Michael J. Fromberger. All Rights Reserved.

package channel_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/creachadair/compack"
	"github.com/creachadair/compack/channel"
	"github.com/creachadair/taskgroup"
	"github.com/google/go-cmp/cmp"
)

// openFile returns an open file channel for user on machine in dir. Additional
// settings are given as key, value pairs.
func openFile(t *testing.T, dir, user, machine string, kv ...string) *channel.File {
	t.Helper()
	f := channel.NewFile()
	kv = append([]string{"server", dir, "machine", machine, "poll", "5"}, kv...)
	for i := 0; i+1 < len(kv); i += 2 {
		if err := f.Core().Set(kv[i], kv[i+1]); err != nil {
			t.Fatalf("Set %s: %v", kv[i], err)
		}
	}
	if err := f.LogIn(user, ""); err != nil {
		t.Fatalf("LogIn %q: %v", user, err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open %s@%s: %v", user, machine, err)
	}
	t.Cleanup(func() {
		if err := f.Close(); err != nil {
			t.Errorf("Close %s@%s: %v", user, machine, err)
		}
	})
	return f
}

// filesIn returns the sorted names of the files in dir with any of the given
// extensions.
func filesIn(t *testing.T, dir string, exts ...string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var out []string
	for _, e := range ents {
		if slices.Contains(exts, filepath.Ext(e.Name())) {
			out = append(out, e.Name())
		}
	}
	slices.Sort(out)
	return out
}

var messageFiles = []string{channel.ExtMessage, channel.ExtUnread, channel.ExtReply}

func send(t *testing.T, ch compack.Channel, address, body string) error {
	t.Helper()
	if err := ch.CreateMessage(address, body, ""); err != nil {
		t.Fatalf("CreateMessage(%q): %v", address, err)
	}
	return ch.SendMessage()
}

func TestFileAsync(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1")
	bob := openFile(t, dir, "bob", "M2")

	if err := send(t, alice, "bob@M2", "hello"); err != nil {
		t.Fatalf("SendMessage: unexpected error: %v", err)
	}
	if n := alice.Core().Outbound(); n != 0 {
		t.Errorf("Outbound after send: got %d, want 0", n)
	}
	// Files are named for the recipient's presence record, bob_M2, so the
	// first message to bob on M2 is bob_M2-0000000001.
	if diff := cmp.Diff([]string{"bob_M2-0000000001.MSG", "bob_M2-0000000001.SEM"}, filesIn(t, dir, messageFiles...)); diff != "" {
		t.Errorf("Message files (-want, +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(dir, "bob_M2-0000000001.MSG"))
	if err != nil {
		t.Fatalf("Read message: %v", err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "ASYNC|0\r\nTIME:") || !strings.HasSuffix(text, "\r\nBODY:hello") {
		t.Errorf("Message text has the wrong framing:\n%q", text)
	}
	for _, want := range []string{
		"\r\nIID:" + alice.Core().InstanceID + "\r\n",
		"\r\nWSID:M1\r\n",
		"\r\nFROM:alice|alice\r\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Message text is missing %q:\n%q", want, text)
		}
	}

	if n := bob.MessagesWaiting(); n != 1 {
		t.Errorf("MessagesWaiting: got %d, want 1", n)
	}
	if n := alice.MessagesWaiting(); n != 0 {
		t.Errorf("MessagesWaiting (sender): got %d, want 0", n)
	}
	if !bob.GetMessage() {
		t.Fatal("GetMessage: no message delivered")
	}
	got := bob.Core().Current()
	if got.Body != "hello" || got.Sender.Name != "alice" || got.Sender.MachineID != "M1" {
		t.Errorf("Message: got body %q from %v, want hello from alice@M1", got.Body, got.Sender)
	}
	if got.ID != "bob_M2-0000000001" {
		t.Errorf("Message ID: got %q, want bob_M2-0000000001", got.ID)
	}
	if files := filesIn(t, dir, messageFiles...); len(files) != 0 {
		t.Errorf("Message files remain after delivery: %q", files)
	}
	if bob.GetMessage() {
		t.Errorf("GetMessage: unexpected message %v", bob.Core().Current())
	}
	if n, _ := bob.Core().Setting("msgcount"); n != int64(1) {
		t.Errorf("MSGCOUNT: got %v, want 1", n)
	}
}

func TestFileOrderAndCollision(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1")
	bob := openFile(t, dir, "bob", "M2")

	// A name already in use is skipped.
	if err := os.WriteFile(filepath.Join(dir, "bob_M2-0000000001.MSG"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, body := range []string{"one", "two", "three"} {
		if err := send(t, alice, "bob", body); err != nil {
			t.Fatalf("SendMessage(%q): %v", body, err)
		}
	}
	want := []string{"bob_M2-0000000002.SEM", "bob_M2-0000000003.SEM", "bob_M2-0000000004.SEM"}
	if diff := cmp.Diff(want, filesIn(t, dir, channel.ExtUnread)); diff != "" {
		t.Errorf("Flag files (-want, +got):\n%s", diff)
	}

	var got []string
	for bob.GetMessage() {
		got = append(got, bob.Core().TakeCurrent().Body)
	}
	if diff := cmp.Diff([]string{"one", "two", "three"}, got); diff != "" {
		t.Errorf("Delivery order (-want, +got):\n%s", diff)
	}
}

func TestFileMultipleRecipients(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1")
	bob := openFile(t, dir, "bob", "M2")
	carol := openFile(t, dir, "carol", "M3")

	if err := alice.CreateMessage("bob@M2", "hi all", "news"); err != nil {
		t.Fatalf("CreateMessage: %v", err)
	}
	if err := alice.AddRecipient("carol"); err != nil {
		t.Fatalf("AddRecipient: %v", err)
	}
	if err := alice.AddRecipient("nobody"); compack.Code(err) != compack.CodeNoRecipient {
		t.Errorf("AddRecipient(nobody): got %v, want code %d", err, compack.CodeNoRecipient)
	}
	if err := alice.SendMessage(); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if err := alice.AddRecipient("carol"); compack.Code(err) != compack.CodeNoCurrent {
		t.Errorf("AddRecipient after send: got %v, want code %d", err, compack.CodeNoCurrent)
	}

	for _, ch := range []*channel.File{bob, carol} {
		if !ch.GetMessage() {
			t.Errorf("GetMessage %s: no message", ch.Prefix())
			continue
		}
		if m := ch.Core().Current(); m.Body != "hi all" || m.Subject != "news" {
			t.Errorf("GetMessage %s: got (%q, %q), want (news, hi all)", ch.Prefix(), m.Subject, m.Body)
		}
	}
}

func TestFileSync(t *testing.T) {
	for _, code := range []int{0, 42} {
		dir := t.TempDir()
		alice := openFile(t, dir, "alice", "M1", "async", "false", "timeout", "5000")
		bob := openFile(t, dir, "bob", "M2", "async", "false")

		g := taskgroup.New(nil)
		g.Go(func() error {
			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				if bob.MessagesWaiting() > 0 && bob.GetMessage() {
					m := bob.Core().Current()
					if m.Async || m.Body != "ping" {
						t.Errorf("Request: got async=%v body %q, want sync ping", m.Async, m.Body)
					}
					m.Body = "pong"
					if err := bob.ACKMessage(code); err != nil {
						t.Errorf("ACKMessage: %v", err)
					}
					return nil
				}
				time.Sleep(5 * time.Millisecond)
			}
			t.Error("Receiver: no message before deadline")
			return nil
		})

		err := send(t, alice, "bob@M2", "ping")
		g.Wait()
		if got := compack.Code(err); got != code {
			t.Errorf("SendMessage: got %v, want code %d", err, code)
		}
		reply := alice.Core().Current()
		if reply == nil {
			t.Fatal("SendMessage: no reply recorded")
		}
		if reply.Body != "pong" || reply.ErrorCode != code || reply.Sender.Name != "bob" {
			t.Errorf("Reply: got body %q code %d from %v, want pong, %d, bob", reply.Body, reply.ErrorCode, reply.Sender, code)
		}
		if files := filesIn(t, dir, messageFiles...); len(files) != 0 {
			t.Errorf("Message files remain after reply: %q", files)
		}
	}
}

func TestFileTimeout(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1", "async", "false", "timeout", "100")
	openFile(t, dir, "bob", "M2") // present, but never reads

	start := time.Now()
	err := send(t, alice, "bob@M2", "anyone there?")
	elapsed := time.Since(start)

	if !errors.Is(err, compack.ErrTimeout) || compack.Code(err) != compack.CodeTimeout {
		t.Errorf("SendMessage: got %v, want code %d (%v)", err, compack.CodeTimeout, compack.ErrTimeout)
	}
	if elapsed < 100*time.Millisecond || elapsed > 2*time.Second {
		t.Errorf("SendMessage took %v, want about 100ms", elapsed)
	}
	if cur := alice.Core().Current(); cur != nil {
		t.Errorf("Current after timeout: got %v, want nil", cur)
	}
	if files := filesIn(t, dir, messageFiles...); len(files) != 0 {
		t.Errorf("Unread request was not withdrawn: %q", files)
	}
	if n := alice.Core().Outbound(); n != 0 {
		t.Errorf("Outbound after timeout: got %d, want 0", n)
	}
}

func TestFileBounce(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1", "async", "false", "timeout", "5000")
	bob := openFile(t, dir, "bob", "M2") // asynchronous

	g := taskgroup.New(nil)
	g.Go(func() error {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if bob.MessagesWaiting() > 0 {
				if bob.GetMessage() {
					t.Errorf("GetMessage: synchronous message was delivered: %v", bob.Core().Current())
				}
				return nil
			}
			time.Sleep(5 * time.Millisecond)
		}
		t.Error("Receiver: no message before deadline")
		return nil
	})

	err := send(t, alice, "bob@M2", "ping")
	g.Wait()
	if got := compack.Code(err); got != compack.CodeAsyncRecipient {
		t.Errorf("SendMessage: got %v, want code %d", err, compack.CodeAsyncRecipient)
	}
	reply := alice.Core().Current()
	if reply == nil || reply.ErrorCode != compack.CodeAsyncRecipient ||
		reply.Body != "Recipient is not set for synchronous communications" {
		t.Errorf("Reply: got %v, want bounce", reply)
	}
}

func TestFileEncrypted(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1", "encrypt", "KEY:swordfish")
	bob := openFile(t, dir, "bob", "M2", "encrypt", "swordfish")

	if err := send(t, alice, "bob", "top secret"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "bob_M2-0000000001.MSG"))
	if err != nil {
		t.Fatal(err)
	}
	if text := string(data); strings.Contains(text, "top secret") || !strings.Contains(text, "BODY:[CRYPTOR]") {
		t.Errorf("Message body is not enciphered:\n%q", text)
	}
	if !bob.GetMessage() {
		t.Fatal("GetMessage: no message")
	}
	if got := bob.Core().Current().Body; got != "top secret" {
		t.Errorf("Body: got %q, want top secret", got)
	}
}

func TestFileMalformed(t *testing.T) {
	dir := t.TempDir()
	bob := openFile(t, dir, "bob", "M2")
	for ext, text := range map[string]string{".MSG": "garbage", ".SEM": ""} {
		if err := os.WriteFile(filepath.Join(dir, "bob_M2-0000000009"+ext), []byte(text), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	// A flag with no message file is skipped.
	if err := os.WriteFile(filepath.Join(dir, "bob_M2-0000000001.SEM"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if !bob.GetMessage() {
		t.Fatal("GetMessage: no message")
	}
	if m := bob.Core().Current(); m.ErrorCode != compack.CodeMalformed || m.Body != "garbage" {
		t.Errorf("Message: got code %d body %q, want %d, garbage", m.ErrorCode, m.Body, compack.CodeMalformed)
	}
	if rec, ok := bob.Core().Errors.Peek(0); !ok || rec.Code != compack.CodeMalformed {
		t.Errorf("Error: got (%v, %v), want code %d", rec, ok, compack.CodeMalformed)
	}
}

func TestFileContacts(t *testing.T) {
	dir := t.TempDir()
	bob := openFile(t, dir, "bob", "M2")
	alice := openFile(t, dir, "alice", "M1")

	want := strings.Join([]string{
		"alice|M1|" + alice.Core().InstanceID + "|alice_M1",
		"bob|M2|" + bob.Core().InstanceID + "|bob_M2",
	}, "\r")
	if got := alice.GetContactList(); got != want {
		t.Errorf("GetContactList: got %q, want %q", got, want)
	}
	if n := alice.Core().Contacts.Len(); n != 2 {
		t.Errorf("Contacts: got %d, want 2", n)
	}

	// A presence record with missing fields gets placeholders.
	if err := os.WriteFile(filepath.Join(dir, "zed_M9.HSK"), []byte("2026-01-01 00:00:00 +00:00\r\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(alice.GetContactList(), "\r")
	if last := lines[len(lines)-1]; last != "User[2]|MachID[2]|Instance[2]|zed_M9" {
		t.Errorf("Placeholder contact: got %q", last)
	}

	// Stale records are reported offline.
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(filepath.Join(dir, "bob_M2.HSK"), old, old); err != nil {
		t.Fatal(err)
	}
	alice.Core().Set("stale", "60000")
	for _, line := range strings.Split(alice.GetContactList(), "\r") {
		isBob := strings.HasPrefix(line, "bob|")
		if offline := strings.HasSuffix(line, "|offline"); offline != isBob {
			t.Errorf("Contact %q: got offline=%v, want %v", line, offline, isBob)
		}
	}
}

func TestFileErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("Open", func(t *testing.T) {
		tests := []struct {
			server, user string
			code         int
		}{
			{"", "alice", compack.CodeNoServer},
			{filepath.Join(dir, "nonesuch"), "alice", compack.CodeNoServer},
			{dir, "", compack.CodeNoUser},
		}
		for _, tc := range tests {
			f := channel.NewFile()
			f.Core().Set("server", tc.server)
			f.Core().Set("username", tc.user)
			if err := f.Open(); compack.Code(err) != tc.code {
				t.Errorf("Open(%q, %q): got %v, want code %d", tc.server, tc.user, err, tc.code)
			}
		}
	})

	t.Run("LogIn", func(t *testing.T) {
		f := channel.NewFile()
		for _, bad := range []string{"", "ab", "bad/name", "semi;colon", "tab\tname"} {
			if err := f.LogIn(bad, ""); compack.Code(err) != compack.CodeBadLogin {
				t.Errorf("LogIn(%q): got %v, want code %d", bad, err, compack.CodeBadLogin)
			}
			if u := f.Core().Settings.UserName; u != "" {
				t.Errorf("LogIn(%q) left user name %q", bad, u)
			}
		}
		if err := f.LogIn("alice.b", ""); err != nil {
			t.Errorf("LogIn(alice.b): unexpected error: %v", err)
		}
	})

	t.Run("NotOpen", func(t *testing.T) {
		f := channel.NewFile()
		if n := f.MessagesWaiting(); n != 0 {
			t.Errorf("MessagesWaiting: got %d, want 0", n)
		}
		if f.GetMessage() {
			t.Error("GetMessage: got true on a closed channel")
		}
		if err := f.SendMessage(); !errors.Is(err, compack.ErrNotOpen) || compack.Code(err) != compack.CodeSendNotOpen {
			t.Errorf("SendMessage: got %v, want code %d", err, compack.CodeSendNotOpen)
		}
		if err := f.ACKMessage(0); compack.Code(err) != compack.CodeACKNotOpen {
			t.Errorf("ACKMessage: got %v, want code %d", err, compack.CodeACKNotOpen)
		}
		if rec, ok := f.Core().Errors.Peek(0); !ok || rec.Code != compack.CodeWaitNotOpen {
			t.Errorf("First error: got (%v, %v), want code %d", rec, ok, compack.CodeWaitNotOpen)
		}
	})

	t.Run("Address", func(t *testing.T) {
		alice := openFile(t, dir, "alice", "M1")
		if err := alice.CreateMessage("ab", "x", ""); compack.Code(err) != compack.CodeShortAddress {
			t.Errorf("CreateMessage(ab): got %v, want code %d", err, compack.CodeShortAddress)
		}
		if err := alice.CreateMessage("carol", "x", ""); !errors.Is(err, compack.ErrNoRecipient) {
			t.Errorf("CreateMessage(carol): got %v, want %v", err, compack.ErrNoRecipient)
		}
		if n := alice.Core().Outbound(); n != 0 {
			t.Errorf("Outbound: got %d, want 0", n)
		}
		if err := alice.ACKMessage(0); compack.Code(err) != compack.CodeNoCurrent {
			t.Errorf("ACKMessage: got %v, want code %d", err, compack.CodeNoCurrent)
		}
	})
}

func TestFileClose(t *testing.T) {
	dir := t.TempDir()
	f := channel.NewFile()
	f.Core().Set("server", dir)
	f.Core().Set("machine", "M1")
	if err := f.LogIn("alice", ""); err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if err := f.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}
	presence := filepath.Join(dir, "alice_M1.HSK")
	if _, err := os.Stat(presence); err != nil {
		t.Fatalf("Presence record: %v", err)
	}

	// Logging in as another user moves the presence record.
	if err := f.LogIn("alicia", ""); err != nil {
		t.Fatalf("LogIn: %v", err)
	}
	if got := filesIn(t, dir, channel.ExtPresence); !slices.Equal(got, []string{"alicia_M1.HSK"}) {
		t.Errorf("Presence after LogIn: got %q", got)
	}

	for i := range 2 {
		if err := f.Close(); err != nil {
			t.Errorf("Close %d: unexpected error: %v", i+1, err)
		}
		if got := filesIn(t, dir, channel.ExtPresence); len(got) != 0 {
			t.Errorf("Close %d: presence records remain: %q", i+1, got)
		}
	}
}

func TestFileHyphenatedMachine(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1")
	lab := openFile(t, dir, "bob", "LAB")
	lab2 := openFile(t, dir, "bob", "LAB-2")

	if err := send(t, alice, "bob@LAB-2", "for LAB-2 only"); err != nil {
		t.Fatalf("SendMessage: unexpected error: %v", err)
	}
	if n := lab.MessagesWaiting(); n != 0 {
		t.Errorf("MessagesWaiting bob@LAB: got %d, want 0", n)
	}
	if lab.GetMessage() {
		t.Errorf("GetMessage bob@LAB: got %v, want no message", lab.Core().Current())
	}
	if n := lab2.MessagesWaiting(); n != 1 {
		t.Errorf("MessagesWaiting bob@LAB-2: got %d, want 1", n)
	}
	if !lab2.GetMessage() {
		t.Fatal("GetMessage bob@LAB-2: no message delivered")
	}
	if got := lab2.Core().Current().Body; got != "for LAB-2 only" {
		t.Errorf("Body: got %q, want %q", got, "for LAB-2 only")
	}

	// Names that merely resemble a message for bob@LAB are not picked up.
	for _, name := range []string{"bob_LAB-123.SEM", "bob_LAB-00000000012.SEM", "bob_LAB-000000001x.SEM"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if n := lab.MessagesWaiting(); n != 0 {
		t.Errorf("MessagesWaiting bob@LAB: got %d, want 0", n)
	}
}

func TestFilePresenceUnderHeartbeat(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1")
	bob := openFile(t, dir, "bob", "M2")

	// Every operation on bob rewrites its presence record, while alice
	// resolves bob's address from that record.
	stop := make(chan struct{})
	g := taskgroup.New(nil)
	g.Go(func() error {
		for {
			select {
			case <-stop:
				return nil
			default:
				bob.MessagesWaiting()
			}
		}
	})

	const numTries = 300
	var failed int
	for range numTries {
		if err := alice.CreateMessage("bob@M2", "hello", ""); err != nil {
			failed++
		}
	}
	close(stop)
	g.Wait()
	alice.Core().ClearOutbound()

	if failed != 0 {
		t.Errorf("CreateMessage(bob@M2) failed %d/%d times while bob was open", failed, numTries)
	}
	if files := filesIn(t, dir, ".tmp"); len(files) != 0 {
		t.Errorf("Temporary files remain: %q", files)
	}
	want := "bob|M2|" + bob.Core().InstanceID + "|bob_M2"
	if got := strings.Split(alice.GetContactList(), "\r"); !slices.Contains(got, want) {
		t.Errorf("GetContactList: got %q, want an entry %q", got, want)
	}
}

func TestFileWithdrawnAfterClaim(t *testing.T) {
	dir := t.TempDir()
	alice := openFile(t, dir, "alice", "M1", "async", "false", "timeout", "500")
	bob := openFile(t, dir, "bob", "M2", "async", "false")

	// Bob claims the request but does not reply until alice has given up.
	sent := make(chan struct{})
	var ackErr error
	g := taskgroup.New(nil)
	g.Go(func() error {
		deadline := time.Now().Add(5 * time.Second)
		for !bob.GetMessage() {
			if time.Now().After(deadline) {
				t.Error("Receiver: no message before deadline")
				return nil
			}
			time.Sleep(5 * time.Millisecond)
		}
		<-sent
		ackErr = bob.ACKMessage(0)
		return nil
	})

	err := send(t, alice, "bob@M2", "are you there?")
	close(sent)
	g.Wait()

	if compack.Code(err) != compack.CodeTimeout {
		t.Errorf("SendMessage: got %v, want code %d", err, compack.CodeTimeout)
	}
	if !errors.Is(ackErr, compack.ErrTimeout) || compack.Code(ackErr) != compack.CodeTimeout {
		t.Errorf("ACKMessage: got %v, want code %d (%v)", ackErr, compack.CodeTimeout, compack.ErrTimeout)
	}
	if files := filesIn(t, dir, messageFiles...); len(files) != 0 {
		t.Errorf("Message files remain after withdrawal: %q", files)
	}
}

func TestFileSweepsLogs(t *testing.T) {
	dir, logs := t.TempDir(), t.TempDir()
	now := time.Now()
	old := now.AddDate(0, 0, -1).Format("0102") + "-alice_M1.log"
	cur := now.Format("0102") + "-alice_M1.log"
	for _, name := range []string{old, cur, "notes.txt"} {
		if err := os.WriteFile(filepath.Join(logs, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	openFile(t, dir, "alice", "M1", "logdir", logs)

	if diff := cmp.Diff([]string{cur}, filesIn(t, logs, ".log")); diff != "" {
		t.Errorf("Logs after Open (-want, +got):\n%s", diff)
	}
	if files := filesIn(t, logs, ".txt"); len(files) != 1 {
		t.Errorf("Other files: got %q, want notes.txt", files)
	}
}
