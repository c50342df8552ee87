package telegram

import (
	"strings"
	"testing"
)

func TestSplitCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text     string
		wantCmd  string
		wantRest string
	}{
		{"/roll 2d6+1", "/roll", "2d6+1"},
		{"/quest add find the ledger", "/quest", "add find the ledger"},
		{"/status", "/status", ""},
		{"  /desc   a tall figure  ", "/desc", "a tall figure"},
		{"", "", ""},
		{"just prose", "just", "prose"},
	}
	for _, tc := range tests {
		cmd, rest := splitCommand(tc.text)
		if cmd != tc.wantCmd || rest != tc.wantRest {
			t.Fatalf("splitCommand(%q) = (%q, %q), want (%q, %q)", tc.text, cmd, rest, tc.wantCmd, tc.wantRest)
		}
	}
}

func TestNormalizeSlashCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  string
		want string
	}{
		{"/roll", "/roll"},
		{"/Roll", "/roll"},
		{"/roll@LorekeeperBot", "/roll"},
		{"roll", ""},
		{"", ""},
		{"hello there", ""},
	}
	for _, tc := range tests {
		if got := normalizeSlashCommand(tc.cmd); got != tc.want {
			t.Fatalf("normalizeSlashCommand(%q) = %q, want %q", tc.cmd, got, tc.want)
		}
	}
}

func TestSplitForSend(t *testing.T) {
	t.Parallel()

	t.Run("short text is one chunk", func(t *testing.T) {
		t.Parallel()
		chunks := splitForSend("hello")
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Fatalf("splitForSend() = %v", chunks)
		}
	})

	t.Run("empty text is no chunks", func(t *testing.T) {
		t.Parallel()
		if chunks := splitForSend("   "); chunks != nil {
			t.Fatalf("splitForSend() = %v, want nil", chunks)
		}
	})

	t.Run("long text stays under the cap", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("the rain keeps falling on the docks\n", 400)
		chunks := splitForSend(long)
		if len(chunks) < 2 {
			t.Fatalf("chunks = %d, want at least 2", len(chunks))
		}
		for i, c := range chunks {
			if len(c) > maxChunk {
				t.Fatalf("chunk %d is %d bytes, over the cap", i, len(c))
			}
			if strings.TrimSpace(c) == "" {
				t.Fatalf("chunk %d is blank", i)
			}
		}
	})

	t.Run("prefers newline boundaries", func(t *testing.T) {
		t.Parallel()
		long := strings.Repeat("a line of narration that ends cleanly\n", 200)
		for _, c := range splitForSend(long) {
			if strings.HasSuffix(c, "ends") || strings.HasSuffix(c, "cle") {
				t.Fatalf("chunk split mid-line: %q", c[len(c)-20:])
			}
		}
	})
}

func TestConfirmRegistry(t *testing.T) {
	t.Parallel()

	t.Run("yes reaches the armed waiter", func(t *testing.T) {
		t.Parallel()
		reg := newConfirmRegistry()
		ch := reg.arm(1, 10)
		if !reg.deliver(1, 10, "yes") {
			t.Fatalf("deliver() = false, want consumed")
		}
		if confirmed := <-ch; !confirmed {
			t.Fatalf("waiter got false, want true")
		}
	})

	t.Run("other user does not consume", func(t *testing.T) {
		t.Parallel()
		reg := newConfirmRegistry()
		reg.arm(1, 10)
		if reg.deliver(1, 99, "yes") {
			t.Fatalf("deliver() consumed a message from the wrong user")
		}
	})

	t.Run("non-confirm text is a decline", func(t *testing.T) {
		t.Parallel()
		reg := newConfirmRegistry()
		ch := reg.arm(1, 10)
		if !reg.deliver(1, 10, "no way") {
			t.Fatalf("deliver() = false, want consumed")
		}
		if confirmed := <-ch; confirmed {
			t.Fatalf("waiter got true for a decline")
		}
	})

	t.Run("no waiter means not consumed", func(t *testing.T) {
		t.Parallel()
		reg := newConfirmRegistry()
		if reg.deliver(1, 10, "yes") {
			t.Fatalf("deliver() consumed without a waiter")
		}
	})

	t.Run("disarm removes only the current waiter", func(t *testing.T) {
		t.Parallel()
		reg := newConfirmRegistry()
		ch := reg.arm(1, 10)
		reg.disarm(1, 10, ch)
		if reg.deliver(1, 10, "yes") {
			t.Fatalf("deliver() consumed after disarm")
		}
	})
}

func TestIsConfirmText(t *testing.T) {
	t.Parallel()

	for _, yes := range []string{"yes", "YES", " confirm ", "y", "👍"} {
		if !isConfirmText(yes) {
			t.Fatalf("isConfirmText(%q) = false", yes)
		}
	}
	for _, no := range []string{"", "no", "maybe", "yess"} {
		if isConfirmText(no) {
			t.Fatalf("isConfirmText(%q) = true", no)
		}
	}
}
