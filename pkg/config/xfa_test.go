package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getsigsim/sigsim/pkg/simerr"
)

const sampleXFA = `<?xml version="1.0" encoding="UTF-8"?>
<xdp:xdp xmlns:xdp="http://ns.adobe.com/xdp/">
  <template xmlns="http://www.xfa.org/schema/xfa-template/3.3/">
    <subform name="page1">
      <field name="ApproverSignature" x="72pt" y="600pt" w="2.5in" h="40pt">
        <ui><signature/></ui>
        <validate nullTest="error"/>
      </field>
      <field name="Comments" x="72pt" y="500pt" w="180pt" h="20pt">
        <ui><textEdit/></ui>
      </field>
    </subform>
    <subform name="page2">
      <subform name="block">
        <field name="WitnessSignature" x="25.4mm" y="400" w="180pt" h="40pt">
          <ui><signature/></ui>
        </field>
      </subform>
    </subform>
  </template>
</xdp:xdp>`

func TestImportFieldsXML(t *testing.T) {
	fields, err := ImportFieldsXML([]byte(sampleXFA))
	require.NoError(t, err)
	require.Len(t, fields, 2, "non-signature fields must be skipped")

	first := fields[0]
	assert.Equal(t, "ApproverSignature", first.Name)
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, 72.0, first.Bounds.X)
	assert.Equal(t, 600.0, first.Bounds.Y)
	assert.Equal(t, 180.0, first.Bounds.Width, "2.5in is 180pt")
	assert.Equal(t, 40.0, first.Bounds.Height)
	assert.True(t, first.Required, "nullTest=error marks the field required")

	second := fields[1]
	assert.Equal(t, "WitnessSignature", second.Name)
	assert.Equal(t, 2, second.Page, "nested subforms stay on their page")
	assert.InDelta(t, 72.0, second.Bounds.X, 1e-9, "25.4mm is 72pt")
	assert.Equal(t, 400.0, second.Bounds.Y, "bare numbers are points")
	assert.False(t, second.Required)

	for _, f := range fields {
		assert.NoError(t, f.Validate())
	}
}

func TestImportFieldsXMLTemplateRoot(t *testing.T) {
	// A bare template with no subforms puts every field on page 1.
	src := `<template>
  <field name="Sig" x="10" y="20" w="30" h="40">
    <ui><signature/></ui>
  </field>
</template>`

	fields, err := ImportFieldsXML([]byte(src))
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, "Sig", fields[0].Name)
	assert.Equal(t, 1, fields[0].Page)
}

func TestImportFieldsXMLDuplicateNames(t *testing.T) {
	src := `<template>
  <subform>
    <field name="Sig"><ui><signature/></ui></field>
  </subform>
  <subform>
    <field name="Sig"><ui><signature/></ui></field>
    <field name="Sig"><ui><signature/></ui></field>
  </subform>
</template>`

	fields, err := ImportFieldsXML([]byte(src))
	require.NoError(t, err)
	require.Len(t, fields, 3)
	assert.Equal(t, "Sig", fields[0].Name)
	assert.Equal(t, "Sig_2", fields[1].Name)
	assert.Equal(t, "Sig_3", fields[2].Name)
	assert.Equal(t, 1, fields[0].Page)
	assert.Equal(t, 2, fields[1].Page)
}

func TestImportFieldsXMLErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "malformed xml",
			src:  "<template><field</template>",
			want: "parsing form template XML",
		},
		{
			name: "no template element",
			src:  "<form><field name='Sig'><ui><signature/></ui></field></form>",
			want: "expected a <template> element",
		},
		{
			name: "no signature fields",
			src:  "<template><field name='Text'><ui><textEdit/></ui></field></template>",
			want: "declares no signature fields",
		},
		{
			name: "missing name",
			src:  "<template><field x='10'><ui><signature/></ui></field></template>",
			want: "missing a name attribute",
		},
		{
			name: "bad measurement",
			src:  "<template><field name='Sig' x='wide'><ui><signature/></ui></field></template>",
			want: "invalid measurement",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImportFieldsXML([]byte(tt.src))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.True(t, simerr.IsType(err, simerr.MockConfigurationError))
		})
	}
}

func TestParseMeasurement(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"72pt", 72},
		{"0.5in", 36},
		{"25.4mm", 72},
		{"2.54cm", 72},
		{"12", 12},
		{" 72pt ", 72},
	}

	for _, tt := range tests {
		got, err := parseMeasurement(tt.in)
		require.NoError(t, err, tt.in)
		assert.InDelta(t, tt.want, got, 1e-9, tt.in)
	}

	_, err := parseMeasurement("12px")
	assert.Error(t, err, "unknown units are rejected")
}
