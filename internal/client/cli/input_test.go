package cli

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("alice\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Enter username", &out)
	if err != nil || got != "alice" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleText_TrimsWhitespace(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("  alice  \n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Enter username", &out)
	if err != nil || got != "alice" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleText_EOFReturnsPartialLine(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Enter username", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleText_EOFWithoutInput(t *testing.T) {
	in := bufio.NewReader(strings.NewReader(""))
	var out bytes.Buffer
	if _, err := GetSimpleText(in, "Enter username", &out); err == nil {
		t.Fatal("expected error on empty input")
	}
}

func TestGetSimpleText_PromptOnlyWhenInteractive(t *testing.T) {
	orig := isTerminal
	t.Cleanup(func() { isTerminal = orig })

	isTerminal = func(int) bool { return true }
	var out bytes.Buffer
	_, err := GetSimpleText(bufio.NewReader(strings.NewReader("x\n")), "Enter username", &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "Enter username") {
		t.Fatalf("expected prompt in output, got %q", out.String())
	}

	isTerminal = func(int) bool { return false }
	out.Reset()
	_, err = GetSimpleText(bufio.NewReader(strings.NewReader("x\n")), "Enter username", &out)
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no prompt when piped, got %q", out.String())
	}
}
