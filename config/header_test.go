package config

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHeader(t *testing.T) {
	conf, err := Load(homeConfig())
	require.NoError(t, err)
	store := NewStore(conf)

	var buf bytes.Buffer
	require.NoError(t, WriteHeader(&buf, store.Current()))
	out := buf.String()

	for _, line := range []string{
		`const char* ssid = "Home";`,
		`const char* password = "secret123";`,
		`const char* api_server = "http://192.168.1.33:8080";`,
		`const char* api_endpoint = "/predict/simple";`,
		`const int api_timeout = 10000;`,
		`const int LED_SAFE = 2;`,
		`const int LED_THREAT = 4;`,
		`const int LED_STATUS = 5;`,
		`const unsigned long checkInterval = 30000;`,
	} {
		assert.Contains(t, out, line)
	}
	assert.Contains(t, out, store.Current().Revision.String())
}

func TestCString(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"tab\tnew\nline", `"tab\tnew\nline"`},
		{"café", `"caf\303\251"`},
		{"bell\x07", `"bell\007"`},
		{"what??!", `"what?\?!"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cString(tt.in), "input %q", tt.in)
	}
}
