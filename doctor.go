package babylon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/spf13/afero"
)

// DoctorCheck represents the result of one project health check.
type DoctorCheck struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
	Detail   string `json:"detail"`
	OK       bool   `json:"ok"`
}

// RunDoctor checks that the project at dir can be exported with cfg.
func RunDoctor(ctx context.Context, dir string, cfg *ProjectConfig) []DoctorCheck {
	var checks []DoctorCheck
	add := func(name string, required bool, detail string, err error) {
		c := DoctorCheck{Name: name, Required: required, Detail: detail, OK: err == nil}
		if err != nil {
			c.Detail = err.Error()
		}
		checks = append(checks, c)
	}

	cfgPath := ProjectConfigPath(dir)
	if _, err := os.Stat(cfgPath); err != nil {
		add("config", false, "", fmt.Errorf("%s not found, using defaults", cfgPath))
	} else {
		add("config", false, cfgPath, nil)
	}
	add("languages", true, fmt.Sprintf("%v", cfg.Languages), cfg.Validate())

	paths, err := ExpandPaths(afero.NewBasePathFs(afero.NewOsFs(), dir), cfg.Patterns, cfg.Languages)
	add("patterns", true, fmt.Sprintf("%d message file(s)", len(paths)), err)

	var exts []string
	for _, p := range paths {
		if ext := strings.ToLower(path.Ext(p)); !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	slices.Sort(exts)
	add("formats", false, strings.Join(exts, ", "), nil)

	add("snapshot", true, Resolve(dir, cfg.Snapshot), checkSnapshot(ctx, Resolve(dir, cfg.Snapshot)))
	add("workbook", true, Resolve(dir, cfg.Workbook), checkWritableDir(filepath.Dir(Resolve(dir, cfg.Workbook))))

	secrets, err := LoadSecrets(dir)
	if err == nil {
		_, err = NotifierFromConfig(cfg.Notify, secrets)
	}
	add("notify", false, "credentials present", err)

	if cfg.Notify.Desktop {
		add("desktop", false, "", checkDesktopNotifier())
	}
	return checks
}

func checkSnapshot(ctx context.Context, path string) error {
	store, err := OpenSnapshotStore(ctx, path)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Load(ctx)
	return err
}

func checkWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".babylon-doctor-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func checkDesktopNotifier() error {
	var name string
	switch runtime.GOOS {
	case "darwin":
		name = "osascript"
	case "linux":
		name = "notify-send"
	default:
		return ErrUnsupportedOS
	}
	_, err := exec.LookPath(name)
	return err
}

// DoctorPassed reports whether every required check passed.
func DoctorPassed(checks []DoctorCheck) bool {
	for _, c := range checks {
		if c.Required && !c.OK {
			return false
		}
	}
	return true
}

// ErrDoctorFailed is returned by the doctor command when a required check fails.
var ErrDoctorFailed = errors.New("some required checks failed")

// FormatDoctorJSON returns the checks as a JSON array string.
func FormatDoctorJSON(checks []DoctorCheck) (string, error) {
	data, err := json.Marshal(checks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
