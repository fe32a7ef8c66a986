package protocol

import (
	"strings"
	"testing"

	tlerrors "github.com/termlink/termlink/internal/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload, err := Encode("s1", TagTerminalData, "ls -la\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	env, err := Decode(payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.ID != "s1" || env.Type != TagTerminalData || env.Data != "ls -la\n" {
		t.Errorf("round trip lost data: %+v", env)
	}
	if env.ChannelID != "" {
		t.Errorf("single-channel envelope grew a channel id: %q", env.ChannelID)
	}
}

func TestEncodeChannelCarriesChannelID(t *testing.T) {
	payload, err := EncodeChannel("ch1", TagTerminalData, "x")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(payload), `"channelId":"ch1"`) {
		t.Errorf("payload missing channelId: %s", payload)
	}
	if strings.Contains(string(payload), `"id"`) {
		t.Errorf("multi-channel payload carries a session id: %s", payload)
	}
}

func TestEncodeRejectsEmptyTag(t *testing.T) {
	if _, err := Encode("s1", "", "data"); !tlerrors.IsCode(err, tlerrors.CodeDecodeEmptyType) {
		t.Errorf("empty tag error = %v, want %s", err, tlerrors.CodeDecodeEmptyType)
	}
	if _, err := EncodeChannel("ch1", "", "data"); !tlerrors.IsCode(err, tlerrors.CodeDecodeEmptyType) {
		t.Errorf("empty tag error = %v, want %s", err, tlerrors.CodeDecodeEmptyType)
	}
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		code    string
	}{
		{"not json", "not json at all", tlerrors.CodeDecodeMalformed},
		{"truncated", `{"type": "CONNECT"`, tlerrors.CodeDecodeMalformed},
		{"missing type", `{"id": "s1", "data": "x"}`, tlerrors.CodeDecodeEmptyType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.payload))
			if !tlerrors.IsCode(err, tc.code) {
				t.Errorf("Decode(%q) error = %v, want code %s", tc.payload, err, tc.code)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	fr, err := Classify(true, []byte{0x00, 0x01, 0xff})
	if err != nil {
		t.Fatalf("classify binary: %v", err)
	}
	if fr.Kind != FrameBinary || len(fr.Binary) != 3 {
		t.Errorf("binary frame = %+v", fr)
	}

	payload, _ := Encode("s1", TagPing, "")
	fr, err = Classify(false, payload)
	if err != nil {
		t.Fatalf("classify control: %v", err)
	}
	if fr.Kind != FrameControl || fr.Envelope.Type != TagPing {
		t.Errorf("control frame = %+v", fr)
	}

	// Binary frames are never JSON-parsed, even when they look like JSON.
	fr, err = Classify(true, []byte(`{"type":"CONNECT"}`))
	if err != nil || fr.Kind != FrameBinary {
		t.Errorf("JSON-looking binary frame was parsed: %+v, %v", fr, err)
	}
}

func TestKnownTags(t *testing.T) {
	for _, tag := range []Tag{TagConnect, TagClose, TagPing, TagTerminalInit,
		TagTerminalData, TagTerminalResize, TagTerminalAction, TagTerminalError,
		TagError, TagMessageNotify, TagShareUserRemove, TagK8sBinary} {
		if !tag.Known() {
			t.Errorf("tag %s not recognized", tag)
		}
	}
	if Tag("BOGUS").Known() {
		t.Errorf("bogus tag recognized")
	}
}

func TestParseConnect(t *testing.T) {
	p, err := ParseConnect(`{"setting":{"zmodemDisabled":true},"user":{"username":"alice"},"code":"654321"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !p.Setting.TransferDisabled || p.User.Username != "alice" || p.Code != "654321" {
		t.Errorf("parsed payload = %+v", p)
	}

	// CONNECT with no data is valid: defaults apply.
	if _, err := ParseConnect(""); err != nil {
		t.Errorf("empty CONNECT data rejected: %v", err)
	}

	if _, err := ParseConnect("{broken"); !tlerrors.IsCode(err, tlerrors.CodeDecodeBadPayload) {
		t.Errorf("broken payload error = %v", err)
	}
}

func TestResizePayloadRoundTrip(t *testing.T) {
	data := MarshalResize(120, 40)
	p, err := ParseResize(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if p.Cols != 120 || p.Rows != 40 {
		t.Errorf("round trip = %+v, want 120x40", p)
	}
}
