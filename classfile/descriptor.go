package classfile

import (
	"fmt"
	"strings"

	"github.com/classlift/unjavac/ir"
)

// dottedName converts a class file's internal slash-separated class name
// (e.g. "java/lang/Object") into its source-level dotted form.
func dottedName(name string) string {
	return strings.ReplaceAll(name, "/", ".")
}

// MalformedDescriptorError is returned when a field or method descriptor
// does not match the grammar of JVM spec §4.3.
type MalformedDescriptorError struct {
	Descriptor string
	Reason     string
}

func (e MalformedDescriptorError) Error() string {
	return fmt.Sprintf("classfile: malformed descriptor %q: %s", e.Descriptor, e.Reason)
}

// ParseFieldDescriptor parses a field descriptor (JVM spec §4.3.2):
// B|C|D|F|I|J|S|Z are primitives, L<name>; is a reference, [T is an array
// of T.
func ParseFieldDescriptor(s string) (ir.Type, error) {
	t, rest, err := parseType(s)
	if err != nil {
		return nil, err
	}
	if rest != "" {
		return nil, MalformedDescriptorError{Descriptor: s, Reason: "trailing characters"}
	}
	return t, nil
}

// ParseMethodDescriptor parses a method descriptor (JVM spec §4.3.3):
// (ParameterDescriptor*)ReturnDescriptor.
func ParseMethodDescriptor(s string) (ir.Signature, error) {
	if len(s) == 0 || s[0] != '(' {
		return ir.Signature{}, MalformedDescriptorError{Descriptor: s, Reason: "missing '('"}
	}
	rest := s[1:]
	var params []ir.Type
	for len(rest) > 0 && rest[0] != ')' {
		var t ir.Type
		var err error
		t, rest, err = parseType(rest)
		if err != nil {
			return ir.Signature{}, err
		}
		params = append(params, t)
	}
	if len(rest) == 0 {
		return ir.Signature{}, MalformedDescriptorError{Descriptor: s, Reason: "missing ')'"}
	}
	rest = rest[1:] // consume ')'
	var ret ir.Type
	if rest == "V" {
		ret = ir.TypeVoid
		rest = ""
	} else {
		var err error
		ret, rest, err = parseType(rest)
		if err != nil {
			return ir.Signature{}, err
		}
	}
	if rest != "" {
		return ir.Signature{}, MalformedDescriptorError{Descriptor: s, Reason: "trailing characters"}
	}
	return ir.Signature{Parameters: params, Return: ret}, nil
}

// parseType consumes a single FieldType/ReturnDescriptor production from the
// front of s and returns the remainder.
func parseType(s string) (ir.Type, string, error) {
	if len(s) == 0 {
		return nil, "", MalformedDescriptorError{Descriptor: s, Reason: "unexpected end of descriptor"}
	}
	switch s[0] {
	case 'B':
		return ir.TypeByte, s[1:], nil
	case 'C':
		return ir.TypeChar, s[1:], nil
	case 'D':
		return ir.TypeDouble, s[1:], nil
	case 'F':
		return ir.TypeFloat, s[1:], nil
	case 'I':
		return ir.TypeInt, s[1:], nil
	case 'J':
		return ir.TypeLong, s[1:], nil
	case 'S':
		return ir.TypeShort, s[1:], nil
	case 'Z':
		return ir.TypeBoolean, s[1:], nil
	case 'V':
		return ir.TypeVoid, s[1:], nil
	case 'L':
		end := strings.IndexByte(s, ';')
		if end < 0 {
			return nil, "", MalformedDescriptorError{Descriptor: s, Reason: "unterminated class reference"}
		}
		name := dottedName(s[1:end])
		return ir.RefType{Class: ir.ClassRef{Name: name}}, s[end+1:], nil
	case '[':
		elem, rest, err := parseType(s[1:])
		if err != nil {
			return nil, "", err
		}
		return ir.ArrayType{Elem: elem}, rest, nil
	default:
		return nil, "", MalformedDescriptorError{Descriptor: s, Reason: fmt.Sprintf("unrecognized tag %q", s[0])}
	}
}
