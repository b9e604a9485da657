package airtable

import "strings"

var formulaEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
)

// quote возвращает строковый литерал формулы Airtable.
func quote(s string) string {
	return `"` + formulaEscaper.Replace(s) + `"`
}

// field ссылка на поле в формуле.
func field(name string) string {
	return "{" + strings.NewReplacer("{", "", "}", "").Replace(name) + "}"
}

// Eq условие равенства поля строковому значению.
func Eq(name, value string) string {
	return field(name) + " = " + quote(value)
}

// EqFold условие равенства без учёта регистра.
func EqFold(name, value string) string {
	return "LOWER(" + field(name) + ") = " + quote(strings.ToLower(value))
}

// IsTrue условие на включённый флажок.
func IsTrue(name string) string {
	return field(name) + " = TRUE()"
}

// And объединяет условия.
func And(conds ...string) string {
	switch len(conds) {
	case 0:
		return ""
	case 1:
		return conds[0]
	default:
		return "AND(" + strings.Join(conds, ", ") + ")"
	}
}
