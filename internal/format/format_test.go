package format

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectBuild(t *testing.T) {
	tests := []struct {
		version, licensee int
		want              Build
	}{
		{128, 29, BuildUT2004},
		{141, 56, BuildBioShock},
		{142, 56, BuildBioShock},
		{727, 75, BuildBioShockInfinite},
		{472, 46, BuildMKKE},
		{576, 21, BuildBatman},
		{805, 101, BuildBatman2},
		{807, 138, BuildBatman3},
		{877, 5, BuildAHIT},
		{893, 5, BuildAHIT},
		{894, 5, BuildDefault},
		{512, 0, BuildDefault},
		{68, 0, BuildDefault},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectBuild(tt.version, tt.licensee), "v%d/%d", tt.version, tt.licensee)
	}
}

func TestParseBuild(t *testing.T) {
	b, ok := ParseBuild("ahit")
	require.True(t, ok)
	assert.Equal(t, BuildAHIT, b)

	_, ok = ParseBuild("nope")
	assert.False(t, ok)
}

func TestGeneration(t *testing.T) {
	assert.Equal(t, UE1, Identity{Version: 69}.Generation())
	assert.Equal(t, UE2, Identity{Version: 128}.Generation())
	assert.Equal(t, UE3, Identity{Version: VUE3}.Generation())
	assert.Equal(t, UE3, Identity{Version: 868}.Generation())
}

func TestObjectFlagsEncoding(t *testing.T) {
	assert.Equal(t, FlagsWhole32, Identity{Version: 128}.ObjectFlagsEncoding())
	assert.Equal(t, FlagsSplit64, Identity{Version: VObjectFlagsToULONG}.ObjectFlagsEncoding())
	assert.Equal(t, FlagsWhole64, NewIdentity(141, 56).ObjectFlagsEncoding())
	assert.Equal(t, 4, FlagsWhole32.Size())
	assert.Equal(t, 8, FlagsSplit64.Size())
}

func fields(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.Field)
	}
	return out
}

func TestHeaderPlan(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want []string
	}{
		{"ue2", NewIdentity(128, 29), []string{"Version"}},
		{"header size only", NewIdentity(250, 0), []string{"Version", "HeaderSize"}},
		{"ue3", NewIdentity(512, 0), []string{"Version", "HeaderSize", "FolderName"}},
		{"bioshock infinite", NewIdentity(727, 75), []string{"Version", "BioShockInfiniteUnknown", "HeaderSize", "FolderName"}},
		{"mkke", NewIdentity(472, 46), []string{"Version", "MKKEUnknown", "HeaderSize", "FolderName"}},
		{"hms old", Identity{Version: 500, Licensee: 30, Build: BuildHMS}, []string{"Version", "HeaderSize", "FolderName"}},
		{"hms mid", Identity{Version: 500, Licensee: 55, Build: BuildHMS}, []string{"Version", "HMSUnknown", "HeaderSize", "FolderName"}},
		{"hms new", Identity{Version: 500, Licensee: 181, Build: BuildHMS}, []string{"Version", "HMSExtended", "HMSUnknown", "HeaderSize", "FolderName"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(Plan(RegionHeader, tt.id)))
		})
	}
}

func TestExportPlan(t *testing.T) {
	tests := []struct {
		name string
		id   Identity
		want []string
	}{
		{"ue2", NewIdentity(128, 29), []string{"Class", "Super", "Outer", "ObjectName"}},
		{"bioshock", NewIdentity(141, 56), []string{"Class", "Super", "Outer", "BioShockUnknown", "ObjectName"}},
		{"ue3", NewIdentity(512, 0), []string{"Class", "Super", "Outer", "ObjectName", "Archetype"}},
		{"batman", NewIdentity(576, 21), []string{"Class", "Super", "Outer", "ObjectName", "Archetype", "RSSUnknown"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(Plan(RegionExport, tt.id)))
		})
	}
}

func TestRulesHaveSteps(t *testing.T) {
	for _, region := range []Region{RegionHeader, RegionExport} {
		for _, r := range Rules(region) {
			require.NotZero(t, r.Step, r.Field)
			if r.Step == StepSkip {
				require.Positive(t, r.Size, r.Field)
			}
		}
	}
}

func TestCondMatch(t *testing.T) {
	id := NewIdentity(128, 29)
	assert.True(t, Cond{}.Match(id))
	assert.True(t, Cond{ExactVersion: 128}.Match(id))
	assert.False(t, Cond{NotVersion: 128}.Match(id))
	assert.False(t, Cond{MinVersion: 129}.Match(id))
	assert.False(t, Cond{MaxVersion: 127}.Match(id))
	assert.True(t, Cond{Builds: []Build{BuildUT2004}}.Match(id))
	assert.False(t, Cond{NotBuilds: []Build{BuildUT2004}}.Match(id))
	assert.True(t, Cond{Generation: UE2}.Match(id))
	assert.False(t, Cond{Family: FamilyRSS}.Match(id))
}

func TestCompactIndexRoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 63, 64, -64, 8191, 8192, 1 << 20, -(1 << 27), math.MaxInt32, math.MinInt32 + 1} {
		enc := EncodeIndex(v)
		require.LessOrEqual(t, len(enc), 5)
		i := 0
		got, n, err := DecodeIndex(func() (byte, error) {
			b := enc[i]
			i++
			return b, nil
		})
		require.NoError(t, err)
		assert.Equal(t, v, got)
		assert.Equal(t, len(enc), n)
	}
}

func TestCompactIndexSingleByte(t *testing.T) {
	assert.Equal(t, []byte{0x05}, EncodeIndex(5))
	assert.Equal(t, []byte{0x85}, EncodeIndex(-5))
	assert.Equal(t, []byte{0x40, 0x01}, EncodeIndex(64))
}
