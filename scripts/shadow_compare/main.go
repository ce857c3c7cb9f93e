package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
)

// target is one request replayed against both APIs. When Fields is set only
// those keys survive in every object, matched after snake_casing, so the Go
// camelCase payloads compare with the legacy column names. Unordered sorts
// every array before comparing.
type target struct {
	Method    string          `json:"method"`
	Path      string          `json:"path"`
	Body      json.RawMessage `json:"body,omitempty"`
	Critical  bool            `json:"critical"`
	Fields    []string        `json:"fields,omitempty"`
	Unordered bool            `json:"unordered,omitempty"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target         target
	LegacyStatus   int
	GoStatus       int
	StatusMatch    bool
	BodyMatch      bool
	Error          error
	DurationGo     time.Duration
	DurationLegacy time.Duration
}

func main() {
	var (
		goBase      string
		legacyBase  string
		goToken     string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&goBase, "go-base", "http://localhost:8080/api", "Go API base URL")
	flag.StringVar(&legacyBase, "legacy-base", "http://localhost:3000/api", "Legacy API base URL")
	flag.StringVar(&goToken, "go-token", os.Getenv("SHADOW_GO_TOKEN"), "Bearer token for the Go API")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "shadow_compare", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	goClient := newClient(goBase, timeout)
	if goToken != "" {
		goClient.SetAuthToken(goToken)
	}
	legacyClient := newClient(legacyBase, timeout)

	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(goClient, legacyClient, t)
		if comp.Error != nil {
			if t.Critical {
				breaking++
			}
		} else if !comp.StatusMatch || !comp.BodyMatch {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func newClient(base string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(strings.TrimRight(base, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(goClient, legacyClient *resty.Client, tgt target) comparison {
	comp := comparison{Target: tgt}
	goResp, goErr := performRequest(goClient, tgt)
	legacyResp, legacyErr := performRequest(legacyClient, tgt)

	if goErr != nil {
		comp.Error = fmt.Errorf("go request failed: %w", goErr)
		return comp
	}
	if legacyErr != nil {
		comp.Error = fmt.Errorf("legacy request failed: %w", legacyErr)
		return comp
	}

	comp.DurationGo = goResp.Time()
	comp.DurationLegacy = legacyResp.Time()
	comp.GoStatus = goResp.StatusCode()
	comp.LegacyStatus = legacyResp.StatusCode()
	comp.StatusMatch = comp.GoStatus == comp.LegacyStatus
	comp.BodyMatch = bodiesEqual(projectBody(unwrapData(goResp.Body()), tgt), projectBody(legacyResp.Body(), tgt))

	return comp
}

func performRequest(client *resty.Client, tgt target) (*resty.Response, error) {
	method := strings.ToUpper(strings.TrimSpace(tgt.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := tgt.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	req := client.R()
	if len(tgt.Body) > 0 {
		req.SetHeader("Content-Type", "application/json").SetBody([]byte(tgt.Body))
	}
	return req.Execute(method, path)
}

// unwrapData strips the Go envelope so payloads compare against the legacy
// bare bodies. Error envelopes are left untouched.
func unwrapData(body []byte) []byte {
	var env struct {
		Data  json.RawMessage `json:"data"`
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil || len(env.Data) == 0 || len(env.Error) > 0 {
		return body
	}
	return env.Data
}

// projectBody reduces body to the fields both APIs share. Bodies that are not
// JSON are returned as is.
func projectBody(body []byte, tgt target) []byte {
	if len(tgt.Fields) == 0 && !tgt.Unordered {
		return body
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return body
	}
	var keep map[string]struct{}
	if len(tgt.Fields) > 0 {
		keep = make(map[string]struct{}, len(tgt.Fields))
		for _, f := range tgt.Fields {
			keep[snakeCase(f)] = struct{}{}
		}
	}
	out, err := json.Marshal(project(v, keep, tgt.Unordered))
	if err != nil {
		return body
	}
	return out
}

// project keeps the keys listed in keep, all of them when keep is nil.
func project(v interface{}, keep map[string]struct{}, unordered bool) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, v2 := range val {
			key := snakeCase(k)
			if keep != nil {
				if _, ok := keep[key]; !ok {
					continue
				}
			}
			out[key] = project(v2, keep, unordered)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, v2 := range val {
			out[i] = project(v2, keep, unordered)
		}
		if unordered {
			sortByEncoding(out)
		}
		return out
	}
	return v
}

func sortByEncoding(items []interface{}) {
	keys := make([]string, len(items))
	for i, item := range items {
		b, _ := json.Marshal(item)
		keys[i] = string(b)
	}
	sort.Sort(byKey{items: items, keys: keys})
}

type byKey struct {
	items []interface{}
	keys  []string
}

func (b byKey) Len() int           { return len(b.items) }
func (b byKey) Less(i, j int) bool { return b.keys[i] < b.keys[j] }
func (b byKey) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func bodiesEqual(a, b []byte) bool {
	if bytes.Equal(bytes.TrimSpace(a), bytes.TrimSpace(b)) {
		return true
	}

	var aj, bj interface{}
	if err := json.Unmarshal(a, &aj); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &bj); err != nil {
		return false
	}
	normalize(&aj)
	normalize(&bj)
	return reflect.DeepEqual(aj, bj)
}

func normalize(v *interface{}) {
	switch val := (*v).(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			normalize(&v2)
			val[k] = v2
		}
	case []interface{}:
		for i, v2 := range val {
			normalize(&v2)
			val[i] = v2
		}
	case float64:
		if val == float64(int64(val)) {
			*v = int64(val)
		}
	}
}

func printReport(results []comparison) {
	fmt.Println("Shadow Compare Report")
	fmt.Println("======================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.StatusMatch || !res.BodyMatch {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Target.Method, res.Target.Path)
		fmt.Printf("  Go Status: %d (%s)\n", res.GoStatus, res.DurationGo)
		fmt.Printf("  Legacy Status: %d (%s)\n", res.LegacyStatus, res.DurationLegacy)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		} else {
			fmt.Printf("  Status match: %t | Body match: %t | Critical: %t\n", res.StatusMatch, res.BodyMatch, res.Target.Critical)
		}
	}
}
