package cli

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestGetSimpleText(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("table 12\n"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Table?", &out)
	if err != nil || got != "table 12" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSimpleTextEOF(t *testing.T) {
	in := bufio.NewReader(strings.NewReader("lastline"))
	var out bytes.Buffer
	got, err := GetSimpleText(in, "Table?", &out)
	if err != nil || got != "lastline" {
		t.Fatalf("got %q, err=%v", got, err)
	}
}

func TestGetSecret_Error(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return nil, errors.New("boom")
	}
	var out bytes.Buffer
	_, err := GetSecret("PIN", &out)
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestGetSecret_PromptWritten(t *testing.T) {
	old := readPassword
	defer func() { readPassword = old }()
	readPassword = func(int) ([]byte, error) {
		return []byte("4321"), nil
	}
	var out bytes.Buffer
	got, err := GetSecret("PIN", &out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "4321" {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(out.String(), "PIN") {
		t.Fatalf("prompt missing: %q", out.String())
	}
}
