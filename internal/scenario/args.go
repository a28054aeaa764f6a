package scenario

import (
	"fmt"
	"strconv"
)

// Placeholder keeps a parameter at its default.
const Placeholder = "_"

// ArgError reports a positional argument that could not be bound.
type ArgError struct {
	Scenario int
	Position int
	Param    string
	Value    string
	Reason   string
}

func (e *ArgError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("scenario %d: argument %d %q: %s", e.Scenario, e.Position+1, e.Value, e.Reason)
	}
	return fmt.Sprintf("scenario %d: argument %d (%s) %q: %s", e.Scenario, e.Position+1, e.Param, e.Value, e.Reason)
}

// Args holds bound parameter values.
type Args struct {
	names  []string
	values map[string]int
}

// Int returns the bound value of the named parameter.
func (a Args) Int(name string) int {
	return a.values[name]
}

// Fields returns the bound values as alternating key/value pairs in
// declaration order.
func (a Args) Fields() []any {
	fields := make([]any, 0, len(a.names)*2)
	for _, name := range a.names {
		fields = append(fields, name, a.values[name])
	}
	return fields
}

// Bind assigns raw positional tokens to d's parameters. A missing token or
// Placeholder selects the default.
func (d Definition) Bind(raw []string) (Args, error) {
	if len(raw) > len(d.Params) {
		return Args{}, &ArgError{
			Scenario: d.ID,
			Position: len(d.Params),
			Value:    raw[len(d.Params)],
			Reason:   fmt.Sprintf("scenario takes at most %d arguments", len(d.Params)),
		}
	}
	args := Args{names: make([]string, 0, len(d.Params)), values: make(map[string]int, len(d.Params))}
	for i, param := range d.Params {
		value := param.Default
		if i < len(raw) && raw[i] != Placeholder {
			v, err := strconv.Atoi(raw[i])
			if err != nil {
				return Args{}, &ArgError{Scenario: d.ID, Position: i, Param: param.Name, Value: raw[i], Reason: "not an integer"}
			}
			if v < param.Min {
				return Args{}, &ArgError{Scenario: d.ID, Position: i, Param: param.Name, Value: raw[i], Reason: fmt.Sprintf("must be at least %d", param.Min)}
			}
			if param.Max > 0 && v > param.Max {
				return Args{}, &ArgError{Scenario: d.ID, Position: i, Param: param.Name, Value: raw[i], Reason: fmt.Sprintf("must be at most %d", param.Max)}
			}
			value = v
		}
		args.names = append(args.names, param.Name)
		args.values[param.Name] = value
	}
	return args, nil
}
