// Package jsexpr embeds raw JavaScript expressions inside JSON documents.
//
// encoding/json refuses MarshalJSON output that is not valid JSON, so an Expr
// marshals to a marked string literal and Marshal swaps every marked literal
// back to the expression text once the document has been encoded.
package jsexpr

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Expr is JavaScript source emitted verbatim by Marshal.
type Expr string

// marker delimits an Expr inside its temporary string literal. It carries a
// random nonce picked at start-up and never written to the output, so a data
// string cannot pass itself off as an Expr. encoding/json always writes
// U+0001 as the escape sequence \u0001.
var marker = "\u0001" + strings.ReplaceAll(uuid.NewString(), "-", "")

var (
	encodedMarker = []byte(`\u0001` + marker[1:])
	markedLiteral = regexp.MustCompile(`"\\u0001` + marker[1:] + `(?:[^"\\]|\\.)*?\\u0001` + marker[1:] + `"`)
)

func (e Expr) String() string { return string(e) }

// MarshalJSON implements json.Marshaler.
func (e Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(marker + string(e) + marker)
}

// Marshal encodes v like json.Marshal, leaving every Expr unquoted.
func Marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if !bytes.Contains(data, encodedMarker) {
		return data, nil
	}

	var decodeErr error
	out := markedLiteral.ReplaceAllFunc(data, func(lit []byte) []byte {
		var s string
		if err := json.Unmarshal(lit, &s); err != nil {
			decodeErr = err
			return lit
		}
		return []byte(s[len(marker) : len(s)-len(marker)])
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}
