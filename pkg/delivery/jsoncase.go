package delivery

import (
	"strings"
	"unicode"
	"unicode/utf8"

	jsoniter "github.com/json-iterator/go"
)

// payloadJSON encodes API results. It matches encoding/json output except
// that exported struct fields without an explicit JSON name are written in
// camelCase. Map keys, json.RawMessage and json.Marshaler output are left
// untouched.
var payloadJSON = newPayloadJSON()

func newPayloadJSON() jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&camelCaseFields{})
	return api
}

// camelCaseFields renames untagged struct fields.
type camelCaseFields struct {
	jsoniter.DummyExtension
}

func (camelCaseFields) UpdateStructDescriptor(desc *jsoniter.StructDescriptor) {
	for _, binding := range desc.Fields {
		// Unexported fields carry no names and must stay hidden.
		if first, _ := utf8.DecodeRuneInString(binding.Field.Name()); !unicode.IsUpper(first) {
			continue
		}
		if tag, ok := binding.Field.Tag().Lookup("json"); ok {
			if name, _, _ := strings.Cut(tag, ","); name != "" {
				continue
			}
		}
		name := CamelCase(binding.Field.Name())
		binding.ToNames = []string{name}
		binding.FromNames = []string{name}
	}
}

// CamelCase lowercases the leading run of upper case letters in name,
// keeping the last one of a run that is followed by a lower case letter:
// "InclusiveCount" becomes "inclusiveCount", "URL" becomes "url" and
// "CPUMSec" becomes "cpumSec".
func CamelCase(name string) string {
	first, _ := utf8.DecodeRuneInString(name)
	if !unicode.IsUpper(first) {
		return name
	}
	runes := []rune(name)
	for i := range runes {
		if i == 1 && !unicode.IsUpper(runes[i]) {
			break
		}
		if i > 0 && i+1 < len(runes) && !unicode.IsUpper(runes[i+1]) {
			if runes[i+1] == ' ' {
				runes[i] = unicode.ToLower(runes[i])
			}
			break
		}
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}
