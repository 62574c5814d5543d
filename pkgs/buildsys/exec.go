package buildsys

import (
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strings"
)

// Run executes a backend tool with the merged environment, streaming its
// output. The exit status is surfaced unmodified through the returned
// error.
func Run(bin string, args []string, env map[string]string) error {
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if len(env) > 0 {
		cmd.Env = MergeEnv(os.Environ(), env)
	}
	return cmd.Run()
}

// Runner is the signature of Run; adapters keep one as a field so tests
// can intercept backend invocations.
type Runner func(bin string, args []string, env map[string]string) error

// MergeEnv overlays override onto a base environment, returning a sorted
// KEY=VALUE slice.
func MergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// PrependPath prepends value to a list-valued entry in env using the
// platform path separator.
func PrependPath(env map[string]string, key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	if cur, ok := env[key]; ok && cur != "" {
		env[key] = value + sep + cur
		return
	}
	if cur := os.Getenv(key); cur != "" {
		env[key] = value + sep + cur
		return
	}
	env[key] = value
}

// AppendFlag appends a flag to a space-separated entry in env.
func AppendFlag(env map[string]string, key, flag string) {
	cur, ok := env[key]
	if !ok {
		cur = os.Getenv(key)
	}
	if cur == "" {
		env[key] = flag
		return
	}
	env[key] = strings.TrimSpace(cur + " " + flag)
}
