package shiftcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", true},
		{"aaaaa-bbbbb-ccccc-ddddd-eeeee", true},
		{"  K9T3B-HWTXJ-9BRKW-J3TTB-JRZ6R\n", true},
		{"11111-22222-33333-44444-55555", true},
		{"AAAAA-BBBBB-CCCCC-DDDDD", false},
		{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE-FFFFF", false},
		{"AAAAAA-BBBBB-CCCCC-DDDDD-EEEE", false},
		{"AAAAA--BBBB-CCCCC-DDDDD-EEEEE", false},
		{"AAAAA BBBBB CCCCC DDDDD EEEEE", false},
		{"AAAAA-BBBBB-CCCCC-DDDDD-EEEE!", false},
		{"XAAAAA-BBBBB-CCCCC-DDDDD-EEEEE", false},
		{"AAAAA-BBBBB-CCCCC-DDDDD-EEEEE ok", false},
		{"ÄAAAA-BBBBB-CCCCC-DDDDD-EEEEE", false},
		{"NOTCODE", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.token))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "ABCDE-12345-FGHIJ-67890-KLMNO", Normalize(" abcde-12345-fghij-67890-klmno\t"))
	assert.Len(t, Normalize("abcde-12345-fghij-67890-klmno"), Length)
}

func TestTokens(t *testing.T) {
	tokens := Tokens("Code: abcde-12345-FGHIJ-67890-klmno (expires soon)")
	assert.Equal(t, []Token{
		{Value: "Code", Offset: 0},
		{Value: "abcde-12345-FGHIJ-67890-klmno", Offset: 6},
		{Value: "expires", Offset: 37},
		{Value: "soon", Offset: 45},
	}, tokens)
}

func TestScan(t *testing.T) {
	text := "first AAAAA-BBBBB-CCCCC-DDDDD-EEEEE, embedded XAAAAA-BBBBB-CCCCC-DDDDD-EEEEE, " +
		"long AAAAA-BBBBB-CCCCC-DDDDD-EEEEE-FFFFF and last 11111-22222-33333-44444-55555."

	codes := Scan(text)
	if assert.Len(t, codes, 2) {
		assert.Equal(t, "AAAAA-BBBBB-CCCCC-DDDDD-EEEEE", codes[0].Value)
		assert.Equal(t, 6, codes[0].Offset)
		assert.Equal(t, "11111-22222-33333-44444-55555", codes[1].Value)
		assert.Equal(t, "11111-22222-33333-44444-55555", text[codes[1].Offset:codes[1].Offset+Length])
	}

	assert.Empty(t, Scan("no codes here, NOTCODE"))
}
