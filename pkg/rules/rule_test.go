package rules

import (
	"testing"

	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func re(source string) *jsvalue.RegExp {
	return &jsvalue.RegExp{Source: source}
}

func TestRuleMatches(t *testing.T) {
	isIndex := jsvalue.NewFunc("isIndex", "", "", func(args ...any) (any, error) {
		return args[0] == "index.js", nil
	})

	tests := []struct {
		name     string
		rule     map[string]any
		filename string
		expected bool
	}{
		{
			name:     "test pattern matches",
			rule:     map[string]any{"test": re(`\.jsx?$`), "loader": "babel-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "exclude beats matching test",
			rule:     map[string]any{"test": re(`\.js$`), "exclude": re("node_modules"), "loader": "babel-loader"},
			filename: "node_modules/foo/index.js",
			expected: false,
		},
		{
			name:     "include must match",
			rule:     map[string]any{"test": re(`\.js$`), "include": "/repo/src", "loader": "babel-loader"},
			filename: "/repo/lib/index.js",
			expected: false,
		},
		{
			name:     "include alone counts",
			rule:     map[string]any{"include": re("src"), "loader": "babel-loader"},
			filename: "src/index.js",
			expected: true,
		},
		{
			name:     "exclude alone counts when not excluded",
			rule:     map[string]any{"exclude": re("node_modules"), "loader": "babel-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "no conditions match nothing",
			rule:     map[string]any{"loader": "babel-loader"},
			filename: "index.js",
			expected: false,
		},
		{
			name:     "predicate test",
			rule:     map[string]any{"test": isIndex, "loader": "x-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "array is any of",
			rule:     map[string]any{"test": []any{re(`\.ts$`), re(`\.js$`)}, "loader": "x-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "or object",
			rule:     map[string]any{"test": map[string]any{"or": []any{re(`\.mjs$`), re(`\.js$`)}}, "loader": "x-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "ecmascript lookahead",
			rule:     map[string]any{"test": re(`^(?!.*\.spec).*\.js$`), "loader": "x-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name:     "case insensitive flag",
			rule:     map[string]any{"test": &jsvalue.RegExp{Source: `\.JS$`, Flags: "i"}, "loader": "x-loader"},
			filename: "index.js",
			expected: true,
		},
		{
			name: "oneOf children",
			rule: map[string]any{"oneOf": []any{
				map[string]any{"test": re(`\.css$`), "loader": "css-loader"},
				map[string]any{"test": re(`\.js$`), "loader": "babel-loader"},
			}},
			filename: "index.js",
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := FromValue(tt.rule)
			require.NoError(t, err)

			got, err := rule.Matches(tt.filename)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestHandlers(t *testing.T) {
	tests := []struct {
		name    string
		rule    map[string]any
		handler string
		want    bool
	}{
		{"loader string", map[string]any{"loader": "babel-loader"}, "babel-loader", true},
		{"loader with query", map[string]any{"loader": "babel-loader?cacheDirectory"}, "babel-loader", true},
		{"resolved path", map[string]any{"loader": "/repo/node_modules/babel-loader/lib/index.js"}, "babel-loader", true},
		{"use list", map[string]any{"use": []any{"style-loader", map[string]any{"loader": "babel-loader"}}}, "babel-loader", true},
		{"use object", map[string]any{"use": map[string]any{"loader": "babel-loader"}}, "babel-loader", true},
		{"chain", map[string]any{"loader": "style-loader!css-loader"}, "css-loader", true},
		{"other loader", map[string]any{"loader": "ts-loader"}, "babel-loader", false},
		{"prefix is not a match", map[string]any{"loader": "babel-loader-extra"}, "babel-loader", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := FromValue(tt.rule)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule.HasHandler(tt.handler))
		})
	}
}

func TestUpdateHandlerOptions(t *testing.T) {
	addPlugin := func(opts map[string]any) map[string]any {
		opts["plugins"] = append(jsvalue.AsSlice(opts["plugins"]), "istanbul")
		return opts
	}

	t.Run("rule level options", func(t *testing.T) {
		rule, err := FromValue(map[string]any{
			"loader":  "babel-loader",
			"options": map[string]any{"plugins": []any{"user-plugin"}},
		})
		require.NoError(t, err)

		require.True(t, rule.UpdateHandlerOptions("babel-loader", addPlugin))
		opts := rule.Fields["options"].(map[string]any)
		assert.Equal(t, []any{"user-plugin", "istanbul"}, opts["plugins"])
	})

	t.Run("use list entry", func(t *testing.T) {
		rule, err := FromValue(map[string]any{
			"use": []any{"thread-loader", "babel-loader"},
		})
		require.NoError(t, err)

		require.True(t, rule.UpdateHandlerOptions("babel-loader", addPlugin))
		entry := rule.Fields["use"].([]any)[1].(map[string]any)
		assert.Equal(t, "babel-loader", entry["loader"])
		assert.Equal(t, []any{"istanbul"}, entry["options"].(map[string]any)["plugins"])
		assert.Equal(t, "thread-loader", rule.Fields["use"].([]any)[0])
	})

	t.Run("query string is left alone", func(t *testing.T) {
		rule, err := FromValue(map[string]any{"loader": "babel-loader", "query": "cacheDirectory"})
		require.NoError(t, err)
		assert.False(t, rule.UpdateHandlerOptions("babel-loader", addPlugin))
	})

	t.Run("source value is not mutated", func(t *testing.T) {
		source := map[string]any{"loader": "babel-loader", "options": map[string]any{}}
		rule, err := FromValue(source)
		require.NoError(t, err)
		rule.UpdateHandlerOptions("babel-loader", addPlugin)
		assert.Empty(t, source["options"])
	})
}

func TestFindRule(t *testing.T) {
	rules, err := FromValues([]any{
		map[string]any{"test": re(`\.css$`), "loader": "css-loader"},
		map[string]any{"test": re(`\.js$`), "loader": "babel-loader"},
	})
	require.NoError(t, err)

	found, err := FindRule(rules, "index.js")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "babel-loader", found.HandlerName())

	found, err = FindRule(rules, "index.ts")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestPrefixCondition(t *testing.T) {
	c := Prefix("/repo/src")
	ok, err := c.Matches("/repo/src/a.js")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/repo/src", c.JSValue())
}

func TestPatternFlags(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		flags    string
		input    string
		expected bool
	}{
		{"case sensitive by default", `\.JSX?$`, "", "/repo/a.jsx", false},
		{"ignore case", `\.JSX?$`, "i", "/repo/a.jsx", true},
		{"multiline anchors", `^b$`, "m", "a\nb", true},
		{"global flag has no effect", `\.js$`, "g", "/repo/a.js", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewPattern(tt.source, tt.flags)
			require.NoError(t, err)
			ok, err := p.Matches(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ok)
			assert.Equal(t, &jsvalue.RegExp{Source: tt.source, Flags: tt.flags}, p.JSValue())
		})
	}
}

func TestInvalidPattern(t *testing.T) {
	_, err := NewPattern("(", "")
	assert.Error(t, err)
}

func TestPackageName(t *testing.T) {
	assert.Equal(t, "babel-loader", PackageName("babel-loader?x"))
	assert.Equal(t, "@scope/loader", PackageName("/r/node_modules/@scope/loader/index.js"))
	assert.Equal(t, "css-loader", PackageName("css-loader/dist/cjs.js"))
}
