package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"h", ""},
		{"Bär", "17"},
		{"Baer", "17"},
		{"Müller-Lüdenscheidt", "65752682"},
		{"Wikipedia", "3412"},
		{"Meyer", "67"},
		{"Meier", "67"},
		{"Mayr", "67"},
		{"Schmidt", "862"},
		{"Schmitt", "862"},
		{"Philipp", "351"},
		{"Christian", "47826"},
		{"Cäsar", "487"},
		{"Xaver", "4837"},
		{"Axel", "0485"},
		{"Hexe", "048"},
		{"Dachs", "248"},
		{"Deutsch", "28"},
		{"Zürich", "874"},
		{"Bad Zwischenahn", "1283866"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Encode(tt.in), "Encode(%q)", tt.in)
	}
}

func TestEncodeWordBoundaries(t *testing.T) {
	// "sc" across a space must not read as a preceded c.
	assert.Equal(t, "084", Encode("as ca"))
	// Within one word the preceding s forces 8.
	assert.Equal(t, "08", Encode("asca"))
}

func TestEncodeCollapsesAcrossWords(t *testing.T) {
	// The trailing s of Hans and the leading S of Sachs squeeze into one 8.
	assert.Equal(t, "068848", Encode("Hans")+Encode("Sachs"))
	assert.Equal(t, "06848", Encode("Hans Sachs"))
}
