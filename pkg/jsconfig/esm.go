package jsconfig

import (
	"regexp"
	"strings"
)

var (
	esmImportDefaultRe   = regexp.MustCompile(`(?m)^([ \t]*)import[ \t]+([A-Za-z_$][\w$]*)[ \t]+from[ \t]+(['"][^'"]+['"])[ \t]*;?`)
	esmImportNamespaceRe = regexp.MustCompile(`(?m)^([ \t]*)import[ \t]+\*[ \t]+as[ \t]+([A-Za-z_$][\w$]*)[ \t]+from[ \t]+(['"][^'"]+['"])[ \t]*;?`)
	esmImportNamedRe     = regexp.MustCompile(`(?m)^([ \t]*)import[ \t]+(?:([A-Za-z_$][\w$]*)[ \t]*,[ \t]*)?\{([^}]*)\}[ \t]*from[ \t]+(['"][^'"]+['"])[ \t]*;?`)
	esmImportBareRe      = regexp.MustCompile(`(?m)^([ \t]*)import[ \t]+(['"][^'"]+['"])[ \t]*;?`)
	esmExportDefaultRe   = regexp.MustCompile(`(?m)^([ \t]*)export[ \t]+default[ \t]+`)
	esmExportDeclRe      = regexp.MustCompile(`(?m)^([ \t]*)export[ \t]+(const|let|var|function|class|async)\b`)
	esmSyntaxRe          = regexp.MustCompile(`(?m)^[ \t]*(import[ \t]|export[ \t])`)
	importAliasRe        = regexp.MustCompile(`^([A-Za-z_$][\w$]*)[ \t]+as[ \t]+([A-Za-z_$][\w$]*)$`)
)

// looksLikeESM reports whether source uses module syntax.
func looksLikeESM(source string) bool {
	return esmSyntaxRe.MatchString(source)
}

// rewriteESM turns the import/export forms found in config files into
// CommonJS. It does not attempt to be a general module transform.
func rewriteESM(source, fileURL string) string {
	out := esmImportNamespaceRe.ReplaceAllString(source, "${1}const $2 = require($3);")
	out = esmImportNamedRe.ReplaceAllStringFunc(out, func(m string) string {
		parts := esmImportNamedRe.FindStringSubmatch(m)
		indent, def, names, spec := parts[1], parts[2], parts[3], parts[4]
		var b strings.Builder
		b.WriteString(indent)
		if def != "" {
			b.WriteString("const " + def + " = __karmaticDefault(require(" + spec + ")); ")
		}
		b.WriteString("const { " + namedBindings(names) + " } = require(" + spec + ");")
		return b.String()
	})
	out = esmImportDefaultRe.ReplaceAllString(out, "${1}const $2 = __karmaticDefault(require($3));")
	out = esmImportBareRe.ReplaceAllString(out, "${1}require($2);")
	out = esmExportDefaultRe.ReplaceAllString(out, "${1}module.exports = ")
	out = esmExportDeclRe.ReplaceAllString(out, "${1}$2")
	return strings.ReplaceAll(out, "import.meta.url", `"`+fileURL+`"`)
}

func namedBindings(names string) string {
	var out []string
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if m := importAliasRe.FindStringSubmatch(name); m != nil {
			out = append(out, m[1]+": "+m[2])
			continue
		}
		out = append(out, name)
	}
	return strings.Join(out, ", ")
}
