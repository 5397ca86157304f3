package startup

import (
	"cmp"
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"media-resolver/internal/logging"
	"media-resolver/internal/memory"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo is what /version reports.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

const rule = "============================================================"

func heading(format string, args ...any) {
	logging.Info("")
	logging.Info("== "+format, args...)
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

// Step logs a completed startup or shutdown step.
func Step(format string, args ...any) {
	logging.Info("  [OK] "+format, args...)
}

// Fatal logs and exits. Used for errors main cannot recover from.
func Fatal(format string, args ...any) {
	logging.Fatal(format, args...)
}

// Components is the summary of what main wired together, logged once before
// the server accepts requests.
type Components struct {
	Memory        memory.ConfigResult
	DecodePixels  int
	DatabaseInit  time.Duration
	CloudBackend  string
	CloudErr      error
	Decoder       string
	VipsRequested bool
	FFprobe       string
	FFprobeFound  bool
	IndexInterval time.Duration
}

func LogComponents(c Components) {
	heading("COMPONENTS")

	if c.Memory.Configured {
		logging.Info("  memory     GOMEMLIMIT %s (%s), decode budget %d px",
			memory.FormatBytes(c.Memory.GoMemLimit), c.Memory.Source, c.DecodePixels)
	} else {
		logging.Info("  memory     no GOMEMLIMIT, decode budget %d px", c.DecodePixels)
	}

	logging.Info("  catalog    ready in %v", c.DatabaseInit)

	switch {
	case c.CloudErr != nil:
		logging.Warn("  cloud      %s failed: %v (cloud-only assets will report notFound)", c.CloudBackend, c.CloudErr)
	case c.CloudBackend == "" || c.CloudBackend == "none":
		logging.Info("  cloud      none, every asset must be on disk")
	default:
		logging.Info("  cloud      %s", c.CloudBackend)
	}

	logging.Info("  decoder    %s", c.Decoder)
	if c.VipsRequested && c.Decoder != "vips" {
		logging.Warn("  decoder    libvips requested but unavailable")
	}

	if c.FFprobeFound {
		logging.Info("  video      %s", c.FFprobe)
	} else {
		logging.Warn("  video      %s not found, video dimensions will be unknown", c.FFprobe)
	}

	if c.IndexInterval > 0 {
		logging.Info("  indexer    every %v", c.IndexInterval)
	} else {
		logging.Info("  indexer    initial scan only")
	}
}

// RouteInfo is one method and path template registered on a router.
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// GetRoutes lists every method and path registered on router.
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo
	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		path, err := route.GetPathTemplate()
		if err != nil {
			return err
		}
		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}
		for _, m := range methods {
			routes = append(routes, RouteInfo{Method: m, Path: path, Name: route.GetName()})
		}
		return nil
	})
	return routes, err
}

// routeGroup buckets /api routes by their first segment below /api.
func routeGroup(path string) string {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if parts[0] == "api" && len(parts) > 1 {
		return "api/" + parts[1]
	}
	return parts[0]
}

// LogHTTPRoutes logs the route count, and the routes themselves at debug
// level, grouped by routeGroup.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	heading("HTTP")

	routes, err := GetRoutes(router)
	if err != nil {
		logging.Warn("  error walking routes: %v", err)
	}
	logging.Info("  %d routes, health check logging %s", len(routes), onOff(logHealthChecks))

	if !logging.IsDebugEnabled() {
		return
	}
	slices.SortStableFunc(routes, func(a, b RouteInfo) int {
		return strings.Compare(routeGroup(a.Path), routeGroup(b.Path))
	})
	group := "\x00"
	for _, r := range routes {
		if g := routeGroup(r.Path); g != group {
			group = g
			logging.Debug("  [%s]", cmp.Or(g, "root"))
		}
		logging.Debug("    %-6s %s", r.Method, r.Path)
	}
}

// Endpoints describes where the server listens.
type Endpoints struct {
	Port        string
	MetricsPort string // empty when metrics are disabled
	Startup     time.Duration
}

func LogServerStarted(e Endpoints) {
	heading("READY in %v", e.Startup)
	logging.Info("  api      http://0.0.0.0:%s/api", e.Port)
	if e.MetricsPort != "" {
		logging.Info("  metrics  http://0.0.0.0:%s/metrics", e.MetricsPort)
	}
	logging.Info(rule)
}

// LogShutdown starts the shutdown section.
func LogShutdown(signal string) {
	heading("SHUTDOWN (%s)", signal)
}

func printBanner() {
	logging.Info(rule)
	logging.Info("media-resolver %s (%s, built %s)", Version, Commit, BuildTime)
	logging.Info(rule)
}

func logSystemInfo() {
	heading("SYSTEM")
	logging.Info("  %s on %s/%s, %d CPUs, GOMAXPROCS %d",
		runtime.Version(), runtime.GOOS, runtime.GOARCH, runtime.NumCPU(), runtime.GOMAXPROCS(0))
	if logging.IsDebugEnabled() {
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  hostname %s", hostname)
		}
	}
}

// logSettings prints name/value pairs aligned in one column.
func logSettings(pairs ...any) {
	for i := 0; i+1 < len(pairs); i += 2 {
		logging.Info("  %-18s %s", fmt.Sprint(pairs[i]), fmt.Sprint(pairs[i+1]))
	}
}
