// Package browsers maps symbolic browser names onto runner launchers.
package browsers

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/arthur-debert/karmatic/pkg/errors"
	"github.com/arthur-debert/karmatic/pkg/types"
)

// Launcher names for the bundled chrome definitions.
const (
	LauncherChrome         = "KarmaticChrome"
	LauncherChromeHeadless = "KarmaticChromeHeadless"
)

// Runner plugins pulled in by browser choices.
const (
	PluginChrome  = "karma-chrome-launcher"
	PluginFirefox = "karma-firefox-launcher"
	PluginSauce   = "karma-sauce-launcher"
)

// SauceCredentials must be set when a SauceLabs browser is requested.
var SauceCredentials = []string{"SAUCE_USERNAME", "SAUCE_ACCESS_KEY"}

var (
	chromeRe  = regexp.MustCompile(`(?i)^chrome([ :-]?headless)?$`)
	firefoxRe = regexp.MustCompile(`(?i)^firefox$`)

	ieRe      = regexp.MustCompile(`(?i)^(msie|ie|internet ?explorer)$`)
	edgeRe    = regexp.MustCompile(`(?i)^(ms|microsoft|)edge$`)
	windowsRe = regexp.MustCompile(`(?i)^win(dows)?([ -]+|$)`)
	macRe     = regexp.MustCompile(`(?i)^(macos|mac ?os ?x|os ?x)([ -]+|$)`)
)

// Selection is the resolved browser setup.
type Selection struct {
	Browsers  []string
	Launchers map[string]types.LauncherSpec
	Plugins   []string
	SauceLabs bool
}

// EnvLookup matches os.LookupEnv.
type EnvLookup func(key string) (string, bool)

// Select maps opts.Browsers onto launchers. With no browsers configured a
// single chrome launcher is used, headless unless opts.Headless is false.
// A SauceLabs browser without credentials fails before anything else is
// returned.
func Select(opts types.Options, lookup EnvLookup) (*Selection, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dataDir := ""
	if opts.ChromeDataDir != "" {
		dataDir = opts.ChromeDataDir
		if !filepath.IsAbs(dataDir) {
			dataDir = filepath.Join(opts.Cwd, dataDir)
		}
	}
	flags := []string{"--no-sandbox"}

	sel := &Selection{
		Launchers: map[string]types.LauncherSpec{
			LauncherChrome:         {Base: "Chrome", Flags: flags, ChromeDataDir: dataDir},
			LauncherChromeHeadless: {Base: "ChromeHeadless", Flags: flags, ChromeDataDir: dataDir},
		},
		Plugins: []string{PluginChrome},
	}

	if len(opts.Browsers) == 0 {
		if opts.Headless {
			sel.Browsers = []string{LauncherChromeHeadless}
		} else {
			sel.Browsers = []string{LauncherChrome}
		}
		return sel, nil
	}

	for _, browser := range opts.Browsers {
		browser = strings.TrimSpace(browser)
		switch {
		case browser == "":
			continue
		case chromeRe.MatchString(browser):
			if strings.Contains(strings.ToLower(browser), "headless") {
				sel.add(LauncherChromeHeadless)
			} else {
				sel.add(LauncherChrome)
			}
		case firefoxRe.MatchString(browser):
			sel.plugin(PluginFirefox)
			sel.add("Firefox")
		case strings.HasPrefix(browser, "sauce-"):
			if !sel.SauceLabs {
				sel.SauceLabs = true
				sel.plugin(PluginSauce)
			}
			name, spec := SauceLauncher(browser)
			sel.Launchers[name] = spec
			sel.add(name)
		default:
			sel.add(browser)
		}
	}

	if sel.SauceLabs {
		if err := CheckSauceCredentials(lookup); err != nil {
			return nil, err
		}
	}
	return sel, nil
}

func (s *Selection) add(name string) {
	for _, b := range s.Browsers {
		if b == name {
			return
		}
	}
	s.Browsers = append(s.Browsers, name)
}

func (s *Selection) plugin(name string) {
	for _, p := range s.Plugins {
		if p == name {
			return
		}
	}
	s.Plugins = append(s.Plugins, name)
}

// SauceLauncher builds the launcher for sauce-<browser>-<version>-<platform>.
// Everything after the version is the platform, so "windows-10" becomes
// "Windows 10".
func SauceLauncher(browser string) (string, types.LauncherSpec) {
	parts := strings.Split(strings.ToLower(browser), "-")
	name := strings.Join(parts, "_")

	spec := types.LauncherSpec{Base: "SauceLabs"}
	if len(parts) > 1 {
		b := ieRe.ReplaceAllString(parts[1], "Internet Explorer")
		spec.BrowserName = edgeRe.ReplaceAllString(b, "MicrosoftEdge")
	}
	if len(parts) > 2 {
		spec.Version = parts[2]
	}
	if len(parts) > 3 {
		platform := strings.Join(parts[3:], " ")
		platform = windowsRe.ReplaceAllString(platform, "Windows ")
		platform = macRe.ReplaceAllString(platform, "OS X ")
		spec.Platform = strings.TrimSpace(platform)
	}
	return name, spec
}

// CheckSauceCredentials fails with the first missing credential variable.
func CheckSauceCredentials(lookup EnvLookup) error {
	for _, key := range SauceCredentials {
		if v, ok := lookup(key); ok && v != "" {
			continue
		}
		return errors.Newf(errors.ErrCredentialMissing,
			"A SauceLabs browser was requested, but no %s environment variable provided", key).
			WithDetail("variable", key).
			WithDetail(errors.DetailHint, key+"=... npm test")
	}
	return nil
}
