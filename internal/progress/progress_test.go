package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
)

func TestBarRenders(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriter(&buf, "generate", 4)
	b.Width = 8

	b.Increment("Cono1")
	if !strings.Contains(buf.String(), "generate [==      ] 1/4  Cono1") {
		t.Errorf("unexpected render %q", buf.String())
	}

	for i := 0; i < 10; i++ {
		b.Increment("x")
	}
	if b.Current() != 4 {
		t.Errorf("current = %d, must stop at total", b.Current())
	}
	if !strings.Contains(buf.String(), "[========] 4/4") {
		t.Errorf("expected a full bar, got %q", buf.String())
	}

	buf.Reset()
	b.Finish()
	if buf.String() != "\r\033[K" {
		t.Errorf("Finish wrote %q", buf.String())
	}
}

func TestBarDisabled(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriter(&buf, "generate", 2)
	b.Enabled = false
	b.Increment("Cono1")
	b.Finish()
	if buf.Len() != 0 || b.Current() != 1 {
		t.Errorf("disabled bar must count silently, wrote %q", buf.String())
	}
}

func TestNewDisabledForJSON(t *testing.T) {
	if New("generate", 3, true).Enabled {
		t.Error("bar must be disabled with --json")
	}
	t.Setenv("GRPH_NO_PROGRESS", "1")
	if New("generate", 3, false).Enabled {
		t.Error("bar must be disabled by GRPH_NO_PROGRESS")
	}
}

func TestBarConcurrent(t *testing.T) {
	var buf bytes.Buffer
	b := NewWriter(&buf, "generate", 50)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Increment("")
		}()
	}
	wg.Wait()
	if b.Current() != 50 {
		t.Errorf("current = %d, want 50", b.Current())
	}
}
