// Package casing enumerates the identifier casings Codic can apply.
package casing

// Casing selects how Codic joins the translated words.
type Casing int

const (
	None Casing = iota
	Camel
	Pascal
	Snake
	Upper
	Kebab
)

type entry struct {
	param string
	label string
	route string
}

var table = [...]entry{
	None:   {param: "", label: "no casing", route: "nocasing"},
	Camel:  {param: "camel", label: "camelCase", route: "camel"},
	Pascal: {param: "pascal", label: "PascalCase", route: "pascal"},
	Snake:  {param: "lower underscore", label: "snake_case", route: "snake"},
	Upper:  {param: "upper underscore", label: "UPPER_CASE", route: "upper"},
	Kebab:  {param: "hyphen", label: "kebab-case", route: "kebab"},
}

// All returns every casing in route-table order.
func All() []Casing {
	return []Casing{None, Camel, Pascal, Snake, Upper, Kebab}
}

// Param is the value sent as the Codic "casing" field. Empty for None,
// which means the field must be left out of the request.
func (c Casing) Param() string { return c.row().param }

// Label is the human-readable name shown in Slack.
func (c Casing) Label() string { return c.row().label }

// Route is the path segment the casing is served under.
func (c Casing) Route() string { return c.row().route }

func (c Casing) String() string { return c.row().label }

func (c Casing) row() entry {
	if c < None || int(c) >= len(table) {
		return table[None]
	}
	return table[c]
}

// FromRoute maps a path segment back to its casing.
func FromRoute(route string) (Casing, bool) {
	for _, c := range All() {
		if table[c].route == route {
			return c, true
		}
	}
	return None, false
}
