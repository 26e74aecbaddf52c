package lexgen

import (
	"github.com/broady/lexgen/internal/casing"
	"github.com/broady/lexgen/lexicon"
)

// Fixed declaration names of a method unit.
const (
	nameQueryParams    = "QueryParams"
	nameInputSchema    = "InputSchema"
	nameOutputSchema   = "OutputSchema"
	nameHandlerInput   = "HandlerInput"
	nameHandlerSuccess = "HandlerSuccess"
	nameHandlerError   = "HandlerError"
	nameHandlerOutput  = "HandlerOutput"
	nameHandlerContext = "HandlerContext"
	nameHandler        = "Handler"
	nameRecord         = "Record"
	nameServer         = "Server"
)

// declName is the type name generated for definition def of kind k.
func declName(def string, k lexicon.Kind) string {
	if def == lexicon.MainDef {
		if k == lexicon.KindRecord {
			return nameRecord
		}
		return "Main"
	}
	return casing.Title(def)
}

// tokenConstName is the constant generated for a token definition.
func tokenConstName(def string) string { return casing.ScreamingSnake(def) }

func guardName(typeName string) string    { return "is" + typeName }
func validateName(typeName string) string { return "validate" + typeName }

// nsClassName is the class generated for a namespace node.
func nsClassName(path string) string { return casing.Title(path) + "NS" }

// memberName is the property or method name for a segment.
func memberName(segment string) string { return casing.Camel(segment) }

// unitKey is the key of a document in the aggregate dictionaries.
func unitKey(nsid string) string { return casing.Title(nsid) }
