package whatsapp

import (
	"encoding/base64"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/util/keys"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type keyPairJSON struct {
	Private string `json:"private"`
	Public  string `json:"public"`
}

type signedPreKeyJSON struct {
	KeyPair   keyPairJSON `json:"keyPair"`
	Signature string      `json:"signature"`
	KeyID     uint32      `json:"keyId"`
}

type meJSON struct {
	ID   string `json:"id"`
	LID  string `json:"lid,omitempty"`
	Name string `json:"name,omitempty"`
}

type accountJSON struct {
	Details             string `json:"details"`
	AccountSignatureKey string `json:"accountSignatureKey"`
	AccountSignature    string `json:"accountSignature"`
	DeviceSignature     string `json:"deviceSignature"`
}

// credentialsJSON is the creds.json layout handed to callers. Binary values
// are base64 encoded.
type credentialsJSON struct {
	NoiseKey          keyPairJSON      `json:"noiseKey"`
	SignedIdentityKey keyPairJSON      `json:"signedIdentityKey"`
	SignedPreKey      signedPreKeyJSON `json:"signedPreKey"`
	RegistrationID    uint32           `json:"registrationId"`
	AdvSecretKey      string           `json:"advSecretKey"`
	Me                *meJSON          `json:"me,omitempty"`
	Account           *accountJSON     `json:"account,omitempty"`
	Platform          string           `json:"platform,omitempty"`
	Registered        bool             `json:"registered"`
}

func b64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func encodeKeyPair(kp *keys.KeyPair) keyPairJSON {
	if kp == nil {
		return keyPairJSON{}
	}
	return keyPairJSON{Private: b64(kp.Priv[:]), Public: b64(kp.Pub[:])}
}

// exportCredentials renders the device's auth material as creds.json.
func exportCredentials(dev *store.Device) ([]byte, error) {
	if dev == nil || dev.NoiseKey == nil || dev.IdentityKey == nil {
		return nil, errors.New("whatsapp: device has no key material")
	}
	creds := credentialsJSON{
		NoiseKey:          encodeKeyPair(dev.NoiseKey),
		SignedIdentityKey: encodeKeyPair(dev.IdentityKey),
		RegistrationID:    dev.RegistrationID,
		AdvSecretKey:      b64(dev.AdvSecretKey),
		Platform:          dev.Platform,
		Registered:        dev.ID != nil,
	}
	if spk := dev.SignedPreKey; spk != nil {
		creds.SignedPreKey = signedPreKeyJSON{
			KeyPair: encodeKeyPair(&spk.KeyPair),
			KeyID:   spk.KeyID,
		}
		if spk.Signature != nil {
			creds.SignedPreKey.Signature = b64(spk.Signature[:])
		}
	}
	if dev.ID != nil {
		creds.Me = &meJSON{ID: dev.ID.String(), Name: dev.PushName}
		if !dev.LID.IsEmpty() {
			creds.Me.LID = dev.LID.String()
		}
	}
	if acc := dev.Account; acc != nil {
		creds.Account = &accountJSON{
			Details:             b64(acc.GetDetails()),
			AccountSignatureKey: b64(acc.GetAccountSignatureKey()),
			AccountSignature:    b64(acc.GetAccountSignature()),
			DeviceSignature:     b64(acc.GetDeviceSignature()),
		}
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode credentials")
	}
	return data, nil
}

// writeFileAtomic writes data next to path and renames it into place, so
// readers never see a partial file.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "create temp credentials")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "write temp credentials")
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.Wrap(err, "chmod temp credentials")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp credentials")
	}
	return errors.Wrap(os.Rename(tmp.Name(), path), "rename credentials")
}
