package obfuscate

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type answer struct {
	Name              string   `json:"name"`
	Country           string   `json:"country"`
	AcceptableGuesses []string `json:"acceptableGuesses"`
	Protein           *int     `json:"proteinPerServing,omitempty"`
}

func TestRoundTrip(t *testing.T) {
	protein := 14
	values := []any{
		answer{Name: "Ramen", Country: "Japan", AcceptableGuesses: []string{"ramen noodles"}, Protein: &protein},
		answer{Name: "Crème brûlée", Country: "France"},
		answer{Name: "Pho 🍜", Country: "Viet Nam"},
		map[string]any{"a": []any{1.5, "x", nil, true}},
		"plain string",
		42.0,
	}
	for _, salt := range []string{"fft-2025-01-01", "", "sel-é"} {
		for _, v := range values {
			ct, err := Obfuscate(v, salt)
			require.NoError(t, err)

			raw := Deobfuscate(ct, salt)
			require.NotNil(t, raw, "salt %q value %v", salt, v)

			want, err := json.Marshal(v)
			require.NoError(t, err)
			assert.JSONEq(t, string(want), string(raw))
		}
	}
}

func TestDeobfuscateInto(t *testing.T) {
	in := answer{Name: "Ramen", Country: "Japan", AcceptableGuesses: []string{"ramen"}}
	ct, err := Obfuscate(in, "fft-2025-03-04")
	require.NoError(t, err)

	var out answer
	require.True(t, DeobfuscateInto(ct, "fft-2025-03-04", &out))
	assert.Equal(t, in, out)
}

func TestWrongSaltDoesNotRecover(t *testing.T) {
	in := answer{Name: "Shakshuka", Country: "Israel", AcceptableGuesses: []string{"shakshuka"}}
	ct, err := Obfuscate(in, "fft-2025-03-04")
	require.NoError(t, err)

	var out answer
	ok := DeobfuscateInto(ct, "fft-2025-03-05", &out)
	if ok {
		assert.NotEqual(t, in, out)
	}
}

func TestCipherTextHidesPlainText(t *testing.T) {
	ct, err := Obfuscate(answer{Name: "Carbonara"}, "fft-2025-03-04")
	require.NoError(t, err)
	decoded, err := base64.StdEncoding.DecodeString(ct)
	require.NoError(t, err)
	assert.NotContains(t, string(decoded), "Carbonara")
}

func TestDeobfuscateMalformed(t *testing.T) {
	assert.Nil(t, Deobfuscate("%%% not base64", "salt"))
	assert.Nil(t, Deobfuscate("", "salt"))
	// valid base64 that does not decode to JSON under this key
	assert.Nil(t, Deobfuscate(base64.StdEncoding.EncodeToString([]byte{0x01, 0x02, 0x03}), "salt"))
}

func TestObfuscateUnserializable(t *testing.T) {
	_, err := Obfuscate(map[string]any{"ch": make(chan int)}, "salt")
	assert.Error(t, err)
}
