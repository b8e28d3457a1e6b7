package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestCommandRegistration(t *testing.T) {
	root := NewRootCmd()

	want := []string{
		"create", "sms", "assign", "ls", "search", "show",
		"monitor", "status", "services", "address", "export", "version",
	}
	registered := make(map[string]bool)
	for _, c := range root.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestAddressSubcommands(t *testing.T) {
	root := NewRootCmd()

	found := false
	for _, c := range root.Commands() {
		if c.Name() != "address" {
			continue
		}
		found = true
		sub := make(map[string]bool)
		for _, s := range c.Commands() {
			sub[s.Name()] = true
		}
		for _, name := range []string{"validate", "near", "search", "random"} {
			if !sub[name] {
				t.Errorf("address subcommand %q not registered", name)
			}
		}
	}
	if !found {
		t.Fatal("address command not registered")
	}
}

func TestVersionCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := Execute(&out, &errOut, []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.Contains(out.String(), "customerforge") {
		t.Errorf("output = %q", out.String())
	}
}

func TestServicesCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := Execute(&out, &errOut, []string{"services"}); err != nil {
		t.Fatalf("services: %v", err)
	}
	if !strings.Contains(out.String(), "doordash") && !strings.Contains(out.String(), "DoorDash") {
		t.Errorf("output = %q, want the service catalog", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	if err := Execute(&out, &errOut, []string{"frobnicate"}); err == nil {
		t.Fatal("unknown command accepted")
	}
}
