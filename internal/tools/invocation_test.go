package tools

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInvocation_DeclaredOrder(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("gobuster", "gobuster", []string{"mode", "url", "wordlist"}, CategoryWeb)
	inv, err := d.Invocation(map[string]any{
		"wordlist": "/usr/share/wordlists/common.txt",
		"url":      "http://10.0.0.5",
		"mode":     "dir",
	})
	if err != nil {
		t.Fatalf("Invocation failed: %v", err)
	}

	if want := "gobuster dir http://10.0.0.5 /usr/share/wordlists/common.txt"; inv.Line != want {
		t.Errorf("Line = %q, want %q", inv.Line, want)
	}
	wantArgv := []string{"gobuster", "dir", "http://10.0.0.5", "/usr/share/wordlists/common.txt"}
	if diff := cmp.Diff(wantArgv, inv.Argv); diff != "" {
		t.Errorf("Argv mismatch (-want +got):\n%s", diff)
	}
}

func TestInvocation_OmitsAbsentAndEmpty(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("nmap", "nmap", []string{"target", "options"}, CategoryNetworkDiscovery)

	cases := []struct {
		name string
		args map[string]any
		want string
	}{
		{"optional absent", map[string]any{"target": "10.0.0.1"}, "nmap 10.0.0.1"},
		{"optional empty", map[string]any{"target": "10.0.0.1", "options": ""}, "nmap 10.0.0.1"},
		{"required absent", map[string]any{"options": "-sV"}, "nmap -sV"},
		{"nothing", map[string]any{}, "nmap"},
		{"nil args", nil, "nmap"},
		{"unknown args ignored", map[string]any{"target": "h", "extra": "x"}, "nmap h"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			inv, err := d.Invocation(tc.args)
			if err != nil {
				t.Fatalf("Invocation failed: %v", err)
			}
			if inv.Line != tc.want {
				t.Errorf("Line = %q, want %q", inv.Line, tc.want)
			}
			if strings.HasSuffix(inv.Line, " ") || strings.Contains(inv.Line, "  ") {
				t.Errorf("placeholder whitespace in %q", inv.Line)
			}
		})
	}
}

func TestInvocation_ArgvSplitsValues(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("nmap", "nmap", []string{"target", "options"}, CategoryNetworkDiscovery)
	inv, err := d.Invocation(map[string]any{"target": "10.0.0.1", "options": "-sV  -p 22,80"})
	if err != nil {
		t.Fatalf("Invocation failed: %v", err)
	}
	want := []string{"nmap", "10.0.0.1", "-sV", "-p", "22,80"}
	if diff := cmp.Diff(want, inv.Argv); diff != "" {
		t.Errorf("Argv mismatch (-want +got):\n%s", diff)
	}
}

func TestInvocation_RawCommand(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("execute_command", RawCommand, []string{"command"}, CategoryCustom)

	inv, err := d.Invocation(map[string]any{"command": "echo hi | tr a-z A-Z"})
	if err != nil {
		t.Fatalf("Invocation failed: %v", err)
	}
	if inv.Line != "echo hi | tr a-z A-Z" {
		t.Errorf("raw line altered: %q", inv.Line)
	}
	if inv.Argv != nil {
		t.Errorf("raw invocation should have no argv, got %v", inv.Argv)
	}

	_, err = d.Invocation(map[string]any{})
	if !errors.Is(err, ErrMissingRequiredArg) {
		t.Errorf("expected ErrMissingRequiredArg, got %v", err)
	}
}

func TestArgString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		in     any
		want   string
		wantOK bool
	}{
		{"nil", nil, "", false},
		{"empty string", "", "", false},
		{"string", "10.0.0.1", "10.0.0.1", true},
		{"true", true, "True", true},
		{"false", false, "", false},
		{"json number", json.Number("8080"), "8080", true},
		{"json zero", json.Number("0"), "", false},
		{"float", float64(443), "443", true},
		{"int", 3, "3", true},
		{"empty list", []any{}, "", false},
		{"list", []any{"a", json.Number("1"), true, nil}, `['a', 1, True, None]`, true},
		{"nested list", []any{[]any{"x"}, map[string]any{}}, `[['x'], {}]`, true},
		{"empty object", map[string]any{}, "", false},
		{"object", map[string]any{"b": false, "a": "v"}, `{'a': 'v', 'b': False}`, true},
		{"quote switching", []any{"it's", `say "hi"`, "a\nb"}, `["it's", 'say "hi"', 'a\nb']`, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := ArgString(tc.in)
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ArgString(%v) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestDescriptorSchema(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("hydra", "hydra", []string{"target", "service", "username", "password_list"}, CategoryPasswords)

	want := ToolSchema{
		Type: "object",
		Properties: map[string]Property{
			"target":        {Type: "string", Description: "target parameter for hydra"},
			"service":       {Type: "string", Description: "service parameter for hydra"},
			"username":      {Type: "string", Description: "username parameter for hydra"},
			"password_list": {Type: "string", Description: "password_list parameter for hydra"},
		},
		Required: []string{"target"},
	}
	if diff := cmp.Diff(want, d.Schema()); diff != "" {
		t.Errorf("Schema mismatch (-want +got):\n%s", diff)
	}
	if d.Description() != "Kali Linux tool: hydra (hydra)" {
		t.Errorf("unexpected description %q", d.Description())
	}
}

func TestDescriptorSchema_NoRequired(t *testing.T) {
	t.Parallel()

	d := NewDescriptor("gdb", "gdb", []string{"binary"}, CategoryReverseEngineering)
	schema := d.Schema()
	if schema.Required == nil || len(schema.Required) != 0 {
		t.Errorf("expected empty non-nil required list, got %#v", schema.Required)
	}

	data, err := json.Marshal(schema)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"required":[]`) {
		t.Errorf("required should serialize as [], got %s", data)
	}
}

func TestNewDescriptor_CopiesParams(t *testing.T) {
	t.Parallel()

	params := []string{"url", "wordlist"}
	d := NewDescriptor("dirb", "dirb", params, CategoryWeb)
	params[0] = "mutated"

	if d.Params[0] != "url" {
		t.Error("descriptor shares caller's params slice")
	}
	if diff := cmp.Diff([]string{"url"}, d.Required); diff != "" {
		t.Errorf("Required mismatch (-want +got):\n%s", diff)
	}
}
