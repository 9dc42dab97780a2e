package karmatic

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/arthur-debert/karmatic/pkg/config"
	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/jsvalue"
	"github.com/arthur-debert/karmatic/pkg/karmaconf"
	"github.com/arthur-debert/karmatic/pkg/types"
	"github.com/charmbracelet/glamour"
	"github.com/go-viper/mapstructure/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatJS    = "js"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

var explainTemplate = template.Must(template.New("explain").Parse(MsgExplainTemplate))

func newConfigCmd() *cobra.Command {
	var (
		format  string
		explain bool
	)

	cmd := &cobra.Command{
		Use:     "config [files...]",
		Short:   MsgConfigShort,
		Long:    MsgConfigLong,
		Example: MsgConfigExample,
		GroupID: "misc",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case formatJS, formatJSON, formatYAML, formatTable:
			default:
				return errors.Newf(errors.ErrInvalidInput, MsgErrUnknownFormat, format)
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			res, err := loadOptions(a.fs, cmd, a.cwd, args, nil)
			if err != nil {
				return err
			}
			if format == formatTable && !explain {
				return writeOptionsTable(a.stdout, res)
			}

			rc, err := a.composer.Compose(cmd.Context(), res.Options)
			if err != nil {
				return err
			}
			if explain {
				return writeExplanation(a.stdout, rc, res)
			}
			return writeConfig(a.stdout, format, karmaconf.Value(rc, a.composer.Finder()), func() string {
				return karmaconf.Render(rc, a.composer.Finder())
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJS, MsgFlagFormat)
	cmd.Flags().BoolVar(&explain, "explain", false, MsgFlagExplain)
	_ = cmd.RegisterFlagCompletionFunc("format", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return []string{formatJS, formatJSON, formatYAML, formatTable}, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func writeConfig(w io.Writer, format string, value map[string]any, source func() string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(jsvalue.Plain(value)); err != nil {
			return fmt.Errorf(MsgErrEncodeConfig, err)
		}
		return nil
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(jsvalue.Plain(value)); err != nil {
			return fmt.Errorf(MsgErrEncodeConfig, err)
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, source())
		return err
	}
}

type optionRow struct {
	Key    string
	Value  string
	Source string
}

// optionRows lists every option with its value and the layer that set it.
func optionRows(res *config.Result) ([]optionRow, error) {
	values := map[string]interface{}{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "koanf", Result: &values})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(res.Options); err != nil {
		return nil, err
	}

	var rows []optionRow
	for _, key := range res.Keys() {
		rows = append(rows, optionRow{Key: key, Value: formatValue(values[key]), Source: res.Origin(key)})
	}
	return rows, nil
}

func formatValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []string:
		return strings.Join(t, ", ")
	default:
		return fmt.Sprint(t)
	}
}

func writeOptionsTable(w io.Writer, res *config.Result) error {
	rows, err := optionRows(res)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Option", "Value", "Source"})
	for _, row := range rows {
		t.AppendRow(table.Row{row.Key, row.Value, row.Source})
	}
	project := MsgProjectFileEmpty
	if res.ProjectFile != "" {
		project = res.ProjectFile
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"project file", project, ""})
	t.Render()
	return nil
}

type explanation struct {
	Bundler     types.BundlerFamily
	UserConfig  string
	Files       []string
	Browsers    []string
	Reporters   []string
	Options     []optionRow
	ProjectFile string
}

func writeExplanation(w io.Writer, rc *types.RunnerConfig, res *config.Result) error {
	rows, err := optionRows(res)
	if err != nil {
		return err
	}
	data := explanation{
		Browsers:    rc.Browsers,
		Reporters:   rc.Reporters,
		Options:     rows,
		ProjectFile: relativeTo(rc.BasePath, res.ProjectFile),
	}
	if rc.Bundler != nil {
		data.Bundler = rc.Bundler.Family()
		data.UserConfig = relativeTo(rc.BasePath, rc.Bundler.UserConfig())
	}
	for _, f := range rc.Files {
		data.Files = append(data.Files, f.Pattern)
	}

	var md bytes.Buffer
	if err := explainTemplate.Execute(&md, data); err != nil {
		return fmt.Errorf(MsgErrRenderExplain, err)
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(100), glamour.WithStylePath("notty")}
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		opts = append(opts, glamour.WithAutoStyle())
	}
	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return fmt.Errorf(MsgErrRenderExplain, err)
	}
	out, err := renderer.Render(md.String())
	if err != nil {
		return fmt.Errorf(MsgErrRenderExplain, err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func relativeTo(base, path string) string {
	if path == "" || base == "" || !filepath.IsAbs(path) {
		return path
	}
	if rel, err := filepath.Rel(base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}
