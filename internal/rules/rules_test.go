package rules

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/mw-randomizer/internal/geom"
	"github.com/woozymasta/mw-randomizer/internal/object"
	"github.com/woozymasta/mw-randomizer/internal/placement"
)

func TestLoadSample(t *testing.T) {
	t.Parallel()

	r, err := Load(filepath.Join("testdata", "rules.yaml"))
	require.NoError(t, err)

	require.Len(t, r.Stages, 2)
	require.Len(t, r.Bindings, 1)
	assert.Equal(t, placement.North, r.Bindings[0].Direction)
	assert.Equal(t, uint16(0x4C), r.Bindings[0].Bindee)
	assert.Equal(t, 3, r.Hitboxes.Len())

	st := r.Stage("1-1")
	require.NotNil(t, st)
	assert.True(t, st.RegionScoped())
	assert.Equal(t, []uint16{0x50}, st.ObjectTypes())

	_, isQuadrant := st.Regions["street"].Sampler().(geom.Quadrant)
	assert.True(t, isQuadrant)

	require.Len(t, st.Procedures, 1)
	assert.Equal(t, ProcStage1Doors, st.Procedures[0].Name)
	assert.Equal(t, []uint16{DoorType}, st.Procedures[0].Types)
	assert.Equal(t, "left_doors", st.Procedures[0].Target.Name)

	cave := r.Stage("4-1")
	require.NotNil(t, cave)
	assert.Equal(t, []uint16{0x5A, 0x5B}, cave.Procedures[0].Types)

	door := r.Hitboxes.Resolve(&object.Record{Type: 0x50, Data: []byte{0, 0, 0x0C}})
	require.NotNil(t, door)
	assert.Equal(t, "door_left", door.Name)
}

func TestResolverCases(t *testing.T) {
	t.Parallel()

	r, err := Load(filepath.Join("testdata", "rules.yaml"))
	require.NoError(t, err)
	res := r.Stage("1-1").Objects[0x50]

	_, ok := res.Resolve([]byte{0xFF, 0, 0x08})
	assert.False(t, ok, "keep case leaves the object alone")

	tg, ok := res.Resolve([]byte{0, 0, 0x08})
	require.True(t, ok)
	assert.Equal(t, "street", tg.Name)
	assert.Equal(t, geom.Point{X: 0, Y: -4}, tg.Offset)

	tg, ok = res.Resolve([]byte{0, 0, 0x04})
	require.True(t, ok, "falls through to default")
	assert.Equal(t, geom.Point{}, tg.Offset)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "schema_unknown_field",
			doc:  "stages: []\nextra: 1\n",
		},
		{
			name: "schema_bad_shape",
			doc:  "stages:\n  - name: a\n    index: 0\n    regions:\n      r:\n        - rect: [1, 2]\n",
		},
		{
			name: "unknown_region",
			doc:  "stages:\n  - name: a\n    index: 0\n    objects:\n      - type: 1\n        region: nowhere\n",
		},
		{
			name: "resolver_without_target",
			doc:  "stages:\n  - name: a\n    index: 0\n    objects:\n      - type: 1\n",
		},
		{
			name: "case_with_both",
			doc: "stages:\n  - name: a\n    index: 0\n    regions:\n      r:\n        - point: [0, 0]\n" +
				"    objects:\n      - type: 1\n        cases:\n          - when: {const: true}\n            keep: true\n            region: r\n",
		},
		{
			name: "case_with_neither",
			doc: "stages:\n  - name: a\n    index: 0\n    objects:\n      - type: 1\n" +
				"        cases:\n          - when: {const: true}\n",
		},
		{
			name: "empty_predicate",
			doc: "stages:\n  - name: a\n    index: 0\n    regions:\n      r:\n        - point: [0, 0]\n" +
				"    objects:\n      - type: 1\n        cases:\n          - when: {}\n            region: r\n",
		},
		{
			name: "two_operators",
			doc: "stages:\n  - name: a\n    index: 0\n    regions:\n      r:\n        - point: [0, 0]\n" +
				"    objects:\n      - type: 1\n        cases:\n          - when: {const: true, all: [{const: false}]}\n            region: r\n",
		},
		{
			name: "not_with_two_operands",
			doc: "stages:\n  - name: a\n    index: 0\n    regions:\n      r:\n        - point: [0, 0]\n" +
				"    objects:\n      - type: 1\n        cases:\n          - when: {not: [{const: true}, {const: false}]}\n            region: r\n",
		},
		{
			name: "unknown_direction",
			doc:  "bindings:\n  - {bindee: 1, binder: 2, direction: up, range: 5, len: 1}\nstages: []\n",
		},
		{
			name: "unknown_procedure",
			doc:  "stages:\n  - name: a\n    index: 0\n    procedures:\n      - name: fixSpiders\n",
		},
		{
			name: "procedure_wrong_stage",
			doc:  "stages:\n  - name: a\n    index: 3\n    procedures:\n      - name: randomizeTeleporters\n        types: [0x60]\n",
		},
		{
			name: "unknown_partner",
			doc:  "hitboxes:\n  - name: a\n    type: 1\n    shapes: [{point: [0, 0]}]\ncollision_checks:\n  a: [b]\nstages: []\n",
		},
		{
			name: "duplicate_stage",
			doc:  "stages:\n  - {name: a, index: 0}\n  - {name: a, index: 1}\n",
		},
		{
			name: "duplicate_index",
			doc:  "stages:\n  - {name: a, index: 0}\n  - {name: b, index: 0}\n",
		},
		{
			name: "byte_overflow",
			doc: "hitboxes:\n  - name: a\n    type: 1\n    match: {equals: {index: 0, value: 0x100}}\n" +
				"    shapes: [{point: [0, 0]}]\nstages: []\n",
		},
		{
			name: "hex_without_prefix",
			doc: "hitboxes:\n  - name: a\n    type: 1\n    match: {equals: {index: 0, value: \"4C\"}}\n" +
				"    shapes: [{point: [0, 0]}]\nstages: []\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)

			var ce *ConfigError
			assert.True(t, errors.As(err, &ce))
		})
	}
}

func TestCheckPayload(t *testing.T) {
	t.Parallel()

	r, err := Parse([]byte("bindings:\n  - {bindee: 1, binder: 2, range: 5, src: 4, dst: 0, len: 4}\nstages: []\n"))
	require.NoError(t, err)

	require.NoError(t, r.CheckPayload(8))
	require.ErrorIs(t, r.CheckPayload(6), ErrConfig)
}

func TestParseNum(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
	}{
		{in: "0x4c", want: 0x4C},
		{in: " 0X10 ", want: 0x10},
		{in: "10", want: 10},
		{in: "-3", want: -3},
	}

	for _, tt := range tests {
		got, err := ParseNum(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"zz", "4C", "ff", "0x"} {
		_, err := ParseNum(in)
		require.Error(t, err, in)
	}
}
