// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apollo-rsps/Vicis-sub000/cmd/vicis/cli"
	"github.com/apollo-rsps/Vicis-sub000/lib/cache"
	"github.com/apollo-rsps/Vicis-sub000/lib/codec"
	"github.com/apollo-rsps/Vicis-sub000/lib/container"
	"github.com/apollo-rsps/Vicis-sub000/lib/keyset"
	"github.com/apollo-rsps/Vicis-sub000/lib/testutil"
)

var fileKey = container.Key{11, 22, 33, 44}

// buildCache creates a three-type cache:
//
//	type 0: file 5 "hello"
//	type 1: archive 0 with members 0 "alpha" and 2 "gamma"
//	type 2: file 9 "secret", enciphered with fileKey
//
// and returns its directory and the path of a key file for type 2.
func buildCache(t *testing.T) (string, string) {
	t.Helper()
	t.Setenv("VICIS_CONFIG", "")
	dir := testutil.CacheDir(t)

	keys := keyset.New()
	keys.Put(2, 9, fileKey)
	c, err := cache.Create(dir, 3, cache.WithKeys(keys))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	testutil.RequireNoError(t, c.Write(0, 5, container.New(container.CompressionNone, []byte("hello"))), "writing 0/5")
	testutil.RequireNoError(t, c.WriteMember(1, 0, 0, []byte("alpha")), "writing member 0")
	testutil.RequireNoError(t, c.WriteMember(1, 0, 2, []byte("gamma")), "writing member 2")
	testutil.RequireNoError(t, c.Write(2, 9, container.New(container.CompressionGzip, []byte("secret"))), "writing 2/9")
	testutil.RequireNoError(t, c.Close(), "closing cache")

	keysPath := filepath.Join(t.TempDir(), "keys.yaml")
	keysYAML := "- type: 2\n  id: 9\n  key: [11, 22, 33, 44]\n"
	if err := os.WriteFile(keysPath, []byte(keysYAML), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return dir, keysPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	root := Root(&stdout)
	root.HelpOutput = &stdout
	err := root.Execute(args)
	return stdout.String(), err
}

func TestInfo(t *testing.T) {
	dir, _ := buildCache(t)

	output, err := execute(t, "info", "--root", dir)
	testutil.RequireNoError(t, err, "info")
	if !strings.Contains(output, "types: 3") {
		t.Errorf("info output missing type count:\n%s", output)
	}
	for _, want := range []string{"TYPE", "v1 (format 6)", "v2 (format 6)"} {
		if !strings.Contains(output, want) {
			t.Errorf("info output missing %q:\n%s", want, output)
		}
	}
}

func TestRead(t *testing.T) {
	dir, keysPath := buildCache(t)

	output, err := execute(t, "read", "--root", dir, "--type", "0", "--id", "5")
	testutil.RequireNoError(t, err, "read 0/5")
	if output != "hello" {
		t.Errorf("read 0/5 = %q, want %q", output, "hello")
	}

	output, err = execute(t, "read", "--root", dir, "--type", "1", "--id", "0", "--member", "2")
	testutil.RequireNoError(t, err, "read member")
	if output != "gamma" {
		t.Errorf("read member 2 = %q, want %q", output, "gamma")
	}

	outPath := filepath.Join(t.TempDir(), "secret.bin")
	_, err = execute(t, "read", "--root", dir, "--keys", keysPath, "--type", "2", "--id", "9", "--out", outPath)
	testutil.RequireNoError(t, err, "read keyed file")
	data, err := os.ReadFile(outPath)
	testutil.RequireNoError(t, err, "reading output")
	if string(data) != "secret" {
		t.Errorf("keyed file = %q, want %q", data, "secret")
	}
}

func TestReadErrors(t *testing.T) {
	dir, _ := buildCache(t)

	if _, err := execute(t, "read", "--root", dir, "--type", "0", "--id", "6"); err == nil {
		t.Error("reading a missing file succeeded")
	}
	if _, err := execute(t, "read", "--root", dir, "--type", "1", "--id", "0", "--member", "1"); err == nil {
		t.Error("reading an absent member succeeded")
	}
	if _, err := execute(t, "read", "--root", dir, "--type", "2", "--id", "9"); err == nil {
		t.Error("reading a keyed file without its key succeeded")
	}
	if _, err := execute(t, "read", "--root", dir); err == nil {
		t.Error("read without --type and --id succeeded")
	}
}

func TestTableJSON(t *testing.T) {
	dir, _ := buildCache(t)

	output, err := execute(t, "table", "--root", dir, "--type", "1", "--format", "json")
	testutil.RequireNoError(t, err, "table")

	var report tableReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("Unmarshal failed: %v\n%s", err, output)
	}
	if report.Type != 1 || report.Format != 6 || report.Version != 2 {
		t.Errorf("report header = %+v", report)
	}
	if len(report.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(report.Entries))
	}
	entry := report.Entries[0]
	if entry.ID != 0 || entry.Version != 2 || entry.Capacity != 3 {
		t.Errorf("entry = %+v, want id 0 version 2 capacity 3", entry)
	}
	if len(entry.Children) != 3 {
		t.Errorf("children = %v, want 3 (the gap is filled)", entry.Children)
	}
}

func TestTableCBORIsDeterministic(t *testing.T) {
	dir, _ := buildCache(t)

	first, err := execute(t, "table", "--root", dir, "--type", "0", "--format", "cbor")
	testutil.RequireNoError(t, err, "first dump")
	second, err := execute(t, "table", "--root", dir, "--type", "0", "--format", "cbor")
	testutil.RequireNoError(t, err, "second dump")
	if first != second {
		t.Error("two cbor dumps of the same table differ")
	}

	var report tableReport
	testutil.RequireNoError(t, codec.Unmarshal([]byte(first), &report), "decoding cbor")
	if len(report.Entries) != 1 || report.Entries[0].ID != 5 {
		t.Errorf("cbor report entries = %+v, want file 5", report.Entries)
	}
}

func TestTableMissingType(t *testing.T) {
	dir, _ := buildCache(t)
	if _, err := execute(t, "table", "--root", dir, "--type", "7"); err == nil {
		t.Error("table for a type past the end succeeded")
	}
}

func TestChecksumOutAndCheck(t *testing.T) {
	dir, _ := buildCache(t)

	for _, secured := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "checksums.bin")
		args := []string{"checksum", "--root", dir, "--out", path}
		checkArgs := []string{"checksum", "--root", dir, "--check", path}
		if secured {
			args = append(args, "--whirlpool")
			checkArgs = append(checkArgs, "--whirlpool")
		}

		output, err := execute(t, args...)
		testutil.RequireNoError(t, err, "checksum --out (secured %v)", secured)
		if !strings.Contains(output, "WHIRLPOOL") {
			t.Errorf("checksum output missing header:\n%s", output)
		}
		encoded, err := os.ReadFile(path)
		testutil.RequireNoError(t, err, "reading checksum table")
		wantSize := 3 * 8
		if secured {
			wantSize = 1 + 3*72 + 65
		}
		if len(encoded) != wantSize {
			t.Errorf("encoded size = %d, want %d (secured %v)", len(encoded), wantSize, secured)
		}

		output, err = execute(t, checkArgs...)
		testutil.RequireNoError(t, err, "checksum --check (secured %v)", secured)
		if !strings.Contains(output, "matches the cache") {
			t.Errorf("check output = %q", output)
		}
	}
}

func TestChecksumCheckDetectsChange(t *testing.T) {
	dir, _ := buildCache(t)
	path := filepath.Join(t.TempDir(), "checksums.bin")
	_, err := execute(t, "checksum", "--root", dir, "--out", path)
	testutil.RequireNoError(t, err, "checksum --out")

	c, err := cache.Open(dir)
	testutil.RequireNoError(t, err, "reopening cache")
	testutil.RequireNoError(t, c.Write(0, 6, container.New(container.CompressionNone, []byte("new"))), "writing 0/6")
	testutil.RequireNoError(t, c.Close(), "closing cache")

	output, err := execute(t, "checksum", "--root", dir, "--check", path)
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("check after a write = %v, want exit code 1", err)
	}
	if !strings.Contains(output, "type 0:") {
		t.Errorf("check output does not name type 0:\n%s", output)
	}
}

func TestChecksumCheckRejectsTamperedTable(t *testing.T) {
	dir, _ := buildCache(t)
	path := filepath.Join(t.TempDir(), "checksums.bin")
	_, err := execute(t, "checksum", "--root", dir, "--whirlpool", "--out", path)
	testutil.RequireNoError(t, err, "checksum --out")

	encoded, err := os.ReadFile(path)
	testutil.RequireNoError(t, err, "reading checksum table")
	encoded[3] ^= 0x01
	testutil.RequireNoError(t, os.WriteFile(path, encoded, 0o644), "writing tampered table")

	if _, err := execute(t, "checksum", "--root", dir, "--whirlpool", "--check", path); err == nil {
		t.Error("check of a tampered secured table succeeded")
	}
}

func TestVerify(t *testing.T) {
	dir, keysPath := buildCache(t)

	output, err := execute(t, "verify", "--root", dir, "--keys", keysPath, "--no-lock")
	testutil.RequireNoError(t, err, "verify clean cache")
	if !strings.Contains(output, "all files match") {
		t.Errorf("verify output = %q", output)
	}

	// Replace the stored bytes of 0/5 without touching its table entry.
	c, err := cache.Open(dir)
	testutil.RequireNoError(t, err, "reopening cache")
	tampered, err := container.NewVersioned(container.CompressionNone, []byte("jello"), 1).Encode(container.ZeroKey)
	testutil.RequireNoError(t, err, "encoding tampered file")
	testutil.RequireNoError(t, c.Store().Write(0, 5, tampered), "writing tampered file")
	testutil.RequireNoError(t, c.Close(), "closing cache")

	output, err = execute(t, "verify", "--root", dir, "--keys", keysPath, "--no-lock")
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("verify of a tampered cache = %v, want exit code 1", err)
	}
	if !strings.Contains(output, "0/5") {
		t.Errorf("verify output does not name 0/5:\n%s", output)
	}
}

func TestVerifyWithoutKeyReportsKeyedFile(t *testing.T) {
	dir, _ := buildCache(t)

	output, err := execute(t, "verify", "--root", dir)
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("verify without keys = %v, want an exit error", err)
	}
	if !strings.Contains(output, "2/9") {
		t.Errorf("verify output does not name 2/9:\n%s", output)
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	_, err := execute(t, "verfiy")
	if err == nil || !strings.Contains(err.Error(), `did you mean "verify"`) {
		t.Errorf("error = %v, want a suggestion for verify", err)
	}
}
