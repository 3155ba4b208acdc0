package transcode

import "testing"

func TestParseTier(t *testing.T) {
	cases := []struct {
		name    string
		want    Tier
		wantErr bool
	}{
		{name: "opus-128", want: Tier{Name: "opus-128", Codec: "libopus", Ext: ".opus", MIME: "audio/ogg", BitrateKbps: 128}},
		{name: "mp3-v0", want: Tier{Name: "mp3-v0", Codec: "libmp3lame", Ext: ".mp3", MIME: "audio/mpeg", VBRQuality: 0}},
		{name: "mp3-320", want: Tier{Name: "mp3-320", Codec: "libmp3lame", Ext: ".mp3", MIME: "audio/mpeg", BitrateKbps: 320}},
		{name: "MP3-V2", want: Tier{Name: "mp3-v2", Codec: "libmp3lame", Ext: ".mp3", MIME: "audio/mpeg", VBRQuality: 2}},
		{name: "flac-900", wantErr: true},
		{name: "opus", wantErr: true},
		{name: "opus-", wantErr: true},
		{name: "mp3-v12", wantErr: true},
		{name: "opus-0", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseTier(tc.name)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseTier(%q) should fail", tc.name)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTier(%q) failed: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTier(%q): got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestParseTiersRejectsDuplicates(t *testing.T) {
	if _, err := ParseTiers([]string{"opus-128", "OPUS-128"}); err == nil {
		t.Error("duplicate tiers must be rejected")
	}
	tiers, err := ParseTiers([]string{"opus-128", "mp3-v0"})
	if err != nil {
		t.Fatalf("ParseTiers failed: %v", err)
	}
	if len(tiers) != 2 {
		t.Errorf("tiers: got %d, want 2", len(tiers))
	}
}

func TestParamsCommitToTagPolicy(t *testing.T) {
	tier, _ := ParseTier("opus-128")

	rewriting := NewProducer(nil, 0, true, true)
	passthrough := NewProducer(nil, 0, true, false)

	tags := map[string]string{"title": "Song"}
	a := rewriting.Params(tier, tags)
	b := passthrough.Params(tier, tags)

	if a["rewrite_tags"] != "true" || b["rewrite_tags"] != "false" {
		t.Error("tag policy must appear in params")
	}
	if _, ok := a["tag.title"]; !ok {
		t.Error("rewritten tag values must appear in params")
	}
	if _, ok := b["tag.title"]; ok {
		t.Error("passthrough mode must not leak tag values into params")
	}
}
