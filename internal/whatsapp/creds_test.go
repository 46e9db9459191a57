package whatsapp

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/util/keys"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testDevice(linked bool) *store.Device {
	identity := keys.NewKeyPair()
	dev := &store.Device{
		NoiseKey:       keys.NewKeyPair(),
		IdentityKey:    identity,
		SignedPreKey:   identity.CreateSignedPreKey(1),
		RegistrationID: 4242,
		AdvSecretKey:   []byte("0123456789abcdef0123456789abcdef"),
	}
	if linked {
		jid := types.NewADJID("15551234567", 0, 12)
		dev.ID = &jid
		dev.PushName = "Tester"
		dev.Platform = "smba"
	}
	return dev
}

func TestExportCredentials(t *testing.T) {
	dev := testDevice(true)
	data, err := exportCredentials(dev)
	if err != nil {
		t.Fatalf("exportCredentials failed: %v", err)
	}
	var got credentialsJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if !got.Registered {
		t.Error("linked device must be marked registered")
	}
	if got.RegistrationID != 4242 {
		t.Errorf("RegistrationID: got %d", got.RegistrationID)
	}
	if got.Me == nil || got.Me.ID != dev.ID.String() || got.Me.Name != "Tester" {
		t.Errorf("Me: got %+v", got.Me)
	}
	pub, err := base64.StdEncoding.DecodeString(got.NoiseKey.Public)
	if err != nil || string(pub) != string(dev.NoiseKey.Pub[:]) {
		t.Errorf("noise key public mismatch")
	}
	if got.SignedPreKey.KeyID != 1 || got.SignedPreKey.Signature == "" {
		t.Errorf("SignedPreKey: got %+v", got.SignedPreKey)
	}
}

func TestExportCredentialsUnlinked(t *testing.T) {
	data, err := exportCredentials(testDevice(false))
	if err != nil {
		t.Fatalf("exportCredentials failed: %v", err)
	}
	var got credentialsJSON
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Registered || got.Me != nil {
		t.Errorf("unlinked device exported as linked: %+v", got)
	}
	if _, err := exportCredentials(&store.Device{}); err == nil {
		t.Error("device without keys must fail")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "creds.json")
	if err := writeFileAtomic(path, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := writeFileAtomic(path, []byte(`{"a":2}`)); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{"a":2}` {
		t.Fatalf("content: %s, %v", data, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode: got %v, want 0600", info.Mode().Perm())
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestZapLoggerLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := newZapLogger(zap.New(core), "whatsmeow", "info")
	l.Debugf("hidden %d", 1)
	l.Infof("shown %d", 2)
	l.Sub("Client").Warnf("nested %s", "warn")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "shown 2" || entries[0].LoggerName != "whatsmeow" {
		t.Errorf("first entry: %+v", entries[0].Entry)
	}
	if entries[1].LoggerName != "whatsmeow.Client" || entries[1].Level != zapcore.WarnLevel {
		t.Errorf("sub logger entry: %+v", entries[1].Entry)
	}
}
