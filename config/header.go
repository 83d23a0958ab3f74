package config

import (
	"fmt"
	"io"
	"strings"
	"text/template"
)

// The constant names are the ones the ESP32 sketch already includes.
var headerTemplate = template.Must(template.New("header").Funcs(template.FuncMap{
	"c": cString,
}).Parse(`/*
 * ESP32 configuration generated by ledsentry, do not edit.
 * Revision {{.Revision}}
 */

// WiFi Configuration
const char* ssid = {{c .Config.NetworkName}};
const char* password = {{c .Config.NetworkSecret}};

// Server Configuration
const char* api_server = {{c .Config.ServerAddress}};
const char* api_endpoint = {{c .Config.RequestPath}};
const int api_timeout = {{.Config.RequestTimeoutMillis}};

// LED Pins
const int LED_SAFE = {{.Config.SafePin}};
const int LED_THREAT = {{.Config.ThreatPin}};
const int LED_STATUS = {{.Config.StatusPin}};

// Monitoring Configuration
const unsigned long checkInterval = {{.Config.PollIntervalMillis}};
`))

// WriteHeader renders snap as the Arduino header the sketch includes. The
// output carries the real secret; write it only to the provisioning target.
func WriteHeader(w io.Writer, snap *Snapshot) error {
	if err := headerTemplate.Execute(w, snap); err != nil {
		return fmt.Errorf("failed to render header: %w", err)
	}
	return nil
}

// cString quotes s as a C string literal. Non-printable and non-ASCII bytes
// become three-digit octal escapes, which unlike \x cannot swallow a
// following hex digit.
func cString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '"' || ch == '\\':
			b.WriteByte('\\')
			b.WriteByte(ch)
		case ch == '\n':
			b.WriteString(`\n`)
		case ch == '\t':
			b.WriteString(`\t`)
		case ch < 0x20 || ch >= 0x7f:
			fmt.Fprintf(&b, `\%03o`, ch)
		case ch == '?' && i+1 < len(s) && s[i+1] == '?':
			// break up trigraphs
			b.WriteString(`?\`)
		default:
			b.WriteByte(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}
