package naming

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MustBeValid panics if the name does not follow the naming convention.
//  1. Names are dot-separated, like "VMM.TLB". Elements must not be empty.
//  2. Every element starts with a capital letter and must not contain
//     underscores, quotes or dashes.
//  3. Elements in a series use square brackets, like "Bank[3]".
func MustBeValid(name string) {
	if err := Validate(name); err != nil {
		panic(err.Error())
	}
}

// Validate returns an error if the name does not follow the naming
// convention of MustBeValid.
func Validate(name string) error {
	for _, elem := range strings.Split(name, ".") {
		if err := validateElement(elem); err != nil {
			return fmt.Errorf("name %q is not valid: %w", name, err)
		}
	}

	return nil
}

func validateElement(elem string) error {
	base, rest, hasIndex := strings.Cut(elem, "[")

	if base == "" {
		return errors.New("element must not be empty")
	}

	if strings.ContainsAny(base, "_\"'-]") {
		return fmt.Errorf("element %q contains an invalid character", base)
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return fmt.Errorf("element %q must start with a capital letter", base)
	}

	if hasIndex {
		return validateIndices("[" + rest)
	}

	return nil
}

// validateIndices accepts one or more "[n]" groups.
func validateIndices(s string) error {
	for s != "" {
		if s[0] != '[' {
			return fmt.Errorf("unexpected %q after index", s)
		}

		end := strings.IndexByte(s, ']')
		if end < 0 {
			return errors.New("bracket must match")
		}

		if _, err := strconv.Atoi(s[1:end]); err != nil {
			return fmt.Errorf("index %q must be an integer", s[1:end])
		}

		s = s[end+1:]
	}

	return nil
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
