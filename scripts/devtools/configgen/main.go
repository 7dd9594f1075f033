// Command configgen renders configs/cli.yaml and configs/gateway.yaml from a
// single dev profile so both binaries agree on judge credentials, the gateway
// address and the JWT secret.
package main

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"codejudge/internal/gateway/service"

	"github.com/golang-jwt/jwt/v5"
	"gopkg.in/yaml.v3"
)

const (
	targetCLI     = "cli"
	targetGateway = "gateway"
)

type Profile struct {
	OutputDir string            `yaml:"outputDir"`
	Judge     JudgeProfile      `yaml:"judge"`
	Gateway   GatewayProfile    `yaml:"gateway"`
	Auth      AuthProfile       `yaml:"auth"`
	Targets   map[string]Target `yaml:"targets"`
}

type JudgeProfile struct {
	BaseURL string `yaml:"baseURL"`
	APIKey  string `yaml:"apiKey"`
	APIHost string `yaml:"apiHost"`
}

type GatewayProfile struct {
	Addr string `yaml:"addr"`
}

// AuthProfile enables gateway auth. When set, the CLI config receives a
// token for CLISubject signed with the same secret.
type AuthProfile struct {
	JWTSecret  string        `yaml:"jwtSecret"`
	JWTIssuer  string        `yaml:"jwtIssuer"`
	CLISubject string        `yaml:"cliSubject"`
	TokenTTL   time.Duration `yaml:"tokenTTL"`
}

type Target struct {
	Base      string                 `yaml:"base"`
	Output    string                 `yaml:"output"`
	Overrides map[string]interface{} `yaml:"overrides"`
}

func main() {
	profilePath := flag.String("profile", "configs/dev-profile.yaml", "Path to config profile")
	outputDir := flag.String("output-dir", "", "Override output directory")
	flag.Parse()

	if err := run(*profilePath, *outputDir, time.Now()); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
}

func run(profilePath, outputDir string, now time.Time) error {
	profilePathAbs, err := filepath.Abs(profilePath)
	if err != nil {
		return fmt.Errorf("resolve profile path failed: %w", err)
	}
	profile, err := loadProfile(profilePathAbs)
	if err != nil {
		return err
	}
	if outputDir != "" {
		profile.OutputDir = outputDir
	}
	if profile.OutputDir == "" {
		return errors.New("output directory is required")
	}
	profileDir := filepath.Dir(profilePathAbs)
	if !filepath.IsAbs(profile.OutputDir) {
		profile.OutputDir = filepath.Join(profileDir, profile.OutputDir)
	}

	names := make([]string, 0, len(profile.Targets))
	for name := range profile.Targets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		target := profile.Targets[name]
		if target.Base == "" {
			return fmt.Errorf("target %q missing base config", name)
		}
		if !filepath.IsAbs(target.Base) {
			target.Base = filepath.Join(profileDir, target.Base)
		}
		cfg, err := renderTarget(profile, name, target, now)
		if err != nil {
			return fmt.Errorf("render %q failed: %w", name, err)
		}
		if err := writeYAML(resolveOutputPath(profile.OutputDir, target), cfg); err != nil {
			return fmt.Errorf("write %q failed: %w", name, err)
		}
	}
	return nil
}

func renderTarget(profile *Profile, name string, target Target, now time.Time) (map[string]interface{}, error) {
	base, err := loadYAML(target.Base)
	if err != nil {
		return nil, err
	}
	cfg, ok := normalizeValue(base).(map[string]interface{})
	if !ok {
		return nil, errors.New("base config is not a map")
	}
	if len(target.Overrides) > 0 {
		override, _ := normalizeValue(target.Overrides).(map[string]interface{})
		cfg = mergeMap(cfg, override)
	}
	if err := applyShared(profile, name, cfg, now); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile failed: %w", err)
	}
	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse profile failed: %w", err)
	}
	if len(profile.Targets) == 0 {
		return nil, errors.New("profile has no targets")
	}
	return &profile, nil
}

func loadYAML(path string) (interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read yaml failed: %w", err)
	}
	var value interface{}
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("parse yaml failed: %w", err)
	}
	return value, nil
}

func writeYAML(path string, value interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir failed: %w", err)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal yaml failed: %w", err)
	}
	// outputs may carry the API key
	return os.WriteFile(path, data, 0o600)
}

func resolveOutputPath(outputDir string, target Target) string {
	output := target.Output
	if output == "" {
		output = filepath.Base(target.Base)
	}
	if filepath.IsAbs(output) {
		return output
	}
	return filepath.Join(outputDir, output)
}

func normalizeValue(value interface{}) interface{} {
	switch typed := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			out[k] = normalizeValue(v)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(typed))
		for k, v := range typed {
			out[fmt.Sprint(k)] = normalizeValue(v)
		}
		return out
	case []interface{}:
		out := make([]interface{}, 0, len(typed))
		for _, item := range typed {
			out = append(out, normalizeValue(item))
		}
		return out
	default:
		return value
	}
}

// mergeMap deep-merges override into a copy of base; non-map values replace.
func mergeMap(base, override map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(base))
	for k, v := range base {
		merged[k] = v
	}
	for key, overrideValue := range override {
		baseChild, baseIsMap := merged[key].(map[string]interface{})
		overrideChild, overrideIsMap := overrideValue.(map[string]interface{})
		if baseIsMap && overrideIsMap {
			merged[key] = mergeMap(baseChild, overrideChild)
			continue
		}
		merged[key] = overrideValue
	}
	return merged
}

// section returns root[path...] as a map, creating missing levels.
func section(root map[string]interface{}, path ...string) map[string]interface{} {
	current := root
	for _, key := range path {
		child, ok := current[key].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			current[key] = child
		}
		current = child
	}
	return current
}

func applyShared(profile *Profile, name string, cfg map[string]interface{}, now time.Time) error {
	if name != targetCLI && name != targetGateway {
		return nil
	}

	judge := section(cfg, "client", "judge")
	setIfPresent(judge, "baseURL", profile.Judge.BaseURL)
	setIfPresent(judge, "apiKey", profile.Judge.APIKey)
	setIfPresent(judge, "apiHost", profile.Judge.APIHost)

	switch name {
	case targetGateway:
		setIfPresent(section(cfg, "server"), "addr", profile.Gateway.Addr)
		auth := section(cfg, "auth")
		setIfPresent(auth, "jwtSecret", profile.Auth.JWTSecret)
		setIfPresent(auth, "jwtIssuer", profile.Auth.JWTIssuer)
	case targetCLI:
		client := section(cfg, "client")
		if profile.Gateway.Addr != "" {
			client["executionURL"] = clientURL(profile.Gateway.Addr)
		}
		if profile.Auth.JWTSecret != "" {
			token, err := issueCLIToken(profile.Auth, now)
			if err != nil {
				return err
			}
			client["executionToken"] = token
		}
	}
	return nil
}

func issueCLIToken(auth AuthProfile, now time.Time) (string, error) {
	subject := auth.CLISubject
	if subject == "" {
		subject = "judge-cli"
	}
	ttl := auth.TokenTTL
	if ttl == 0 {
		ttl = 30 * 24 * time.Hour
	}
	return service.NewAuthService(auth.JWTSecret, auth.JWTIssuer).IssueToken(subject, "cli", jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
}

func clientURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func setIfPresent(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}
