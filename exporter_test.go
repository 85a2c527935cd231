package babylon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeProject lays out files under a temp project dir and returns it with
// a config targeting cz and sk.
func writeProject(t *testing.T, files map[string]string) (string, *ProjectConfig) {
	t.Helper()
	t.Setenv("BABYLON_QUIET", "1")
	dir := t.TempDir()
	for p, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(p))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	cfg := DefaultProjectConfig()
	cfg.Languages = []Language{"cz", "sk"}
	return dir, cfg
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, title, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, title+": "+message)
	return nil
}

func loadStoredSnapshot(t *testing.T, dir string, cfg *ProjectConfig) *Snapshot {
	t.Helper()
	store, err := OpenSnapshotStore(context.Background(), Resolve(dir, cfg.Snapshot))
	require.NoError(t, err)
	defer store.Close()
	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	return snap
}

func TestExporter_WritesWorkbookAndSnapshot(t *testing.T) {
	// given
	dir, cfg := writeProject(t, map[string]string{
		"i18n/shop.properties":    "prev=Previous\nnext=Next\nfree=Free\n",
		"i18n/shop_cz.properties": "prev=Predchozi\n",
		"i18n/menu.properties":    "home=Home\n",
	})
	notifier := &recordingNotifier{}

	// when
	report, err := NewExporter(dir, cfg, notifier).Export(context.Background(), ExportOptions{})

	// then
	require.NoError(t, err)
	assert.True(t, report.Written)
	assert.Equal(t, filepath.Join(dir, ".babylon", "translations.xlsx"), report.WorkbookPath)
	assert.ElementsMatch(t, []string{"i18n/shop.properties", "i18n/menu.properties"}, report.Result.NewFilePaths)
	assert.Equal(t, 4, report.Run.Rows)
	assert.Equal(t, 2, report.Run.Files)
	assert.Len(t, notifier.messages, 1)

	sheets, err := ReadWorkbook(report.WorkbookPath)
	require.NoError(t, err)
	assert.Len(t, sheets, 2)

	snap := loadStoredSnapshot(t, dir, cfg)
	assert.ElementsMatch(t, []string{"i18n/shop.properties", "i18n/menu.properties"}, snap.ListFiles())
	f, _ := snap.File("i18n/shop.properties")
	assert.Zero(t, f.Messages.Len(), "export registers files without recording messages")
}

func TestExporter_DryRunWritesNothing(t *testing.T) {
	dir, cfg := writeProject(t, map[string]string{"a.properties": "k=v\n"})
	notifier := &recordingNotifier{}

	report, err := NewExporter(dir, cfg, notifier).Export(context.Background(), ExportOptions{DryRun: true})

	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.False(t, report.Written)
	assert.Equal(t, 1, report.Run.Rows)
	assert.Empty(t, notifier.messages)
	_, statErr := os.Stat(report.WorkbookPath)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, loadStoredSnapshot(t, dir, cfg).ListFiles())
}

func TestExporter_NothingToTranslate(t *testing.T) {
	dir, cfg := writeProject(t, map[string]string{
		"a.properties":    "k=v\n",
		"a_cz.properties": "k=cz\n",
		"a_sk.properties": "k=sk\n",
	})
	notifier := &recordingNotifier{}

	report, err := NewExporter(dir, cfg, notifier).Export(context.Background(), ExportOptions{})

	require.NoError(t, err)
	assert.False(t, report.Written)
	assert.Empty(t, notifier.messages)
	assert.Equal(t, []string{"a.properties"}, loadStoredSnapshot(t, dir, cfg).ListFiles(), "snapshot is still saved")
}

func TestExporter_CombineSheets(t *testing.T) {
	dir, cfg := writeProject(t, map[string]string{
		"a.properties": "x=X\n",
		"b.properties": "y=Y\n",
	})
	cfg.CombineSheets = true

	report, err := NewExporter(dir, cfg, nil).Export(context.Background(), ExportOptions{})
	require.NoError(t, err)

	sheets, err := ReadWorkbook(report.WorkbookPath)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, CombinedSheetName, sheets[0].Name)
	assert.Len(t, sheets[0].DataRows(), 2)
}

func TestExporter_LoadFailureKeepsSnapshot(t *testing.T) {
	// given a first successful export
	dir, cfg := writeProject(t, map[string]string{
		"a.properties": "x=X\n",
		"b.yaml":       "y: Y\n",
	})
	cfg.Patterns = []string{"*.properties", "*.yaml"}
	_, err := NewExporter(dir, cfg, nil).Export(context.Background(), ExportOptions{})
	require.NoError(t, err)

	// when a file turns unreadable and another disappears
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte("- broken\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.properties"), []byte("z=Z\n"), 0644))
	_, err = NewExporter(dir, cfg, nil).Export(context.Background(), ExportOptions{})

	// then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b.yaml")
	assert.ElementsMatch(t, []string{"a.properties", "b.yaml"}, loadStoredSnapshot(t, dir, cfg).ListFiles())
}

func TestExporter_PretranslatesBlankCells(t *testing.T) {
	dir, cfg := writeProject(t, map[string]string{
		"a.properties":    "x=X\ny=Y\n",
		"a_cz.properties": "x=Iks\n",
	})
	cfg.Translator.Source = "en"
	tr := &upperTranslator{}

	report, err := NewExporter(dir, cfg, nil).WithTranslator(tr).Export(context.Background(), ExportOptions{})

	require.NoError(t, err)
	assert.Equal(t, 3, report.Prefilled)
	sheets, err := ReadWorkbook(report.WorkbookPath)
	require.NoError(t, err)
	require.Len(t, sheets, 1)
	assert.Equal(t, [][]any{
		{"x", "X", "Iks", "X@sk"},
		{"y", "Y", "Y@cz", "Y@sk"},
	}, rowsOf(SheetContent{DataRows: sheets[0].DataRows()}))
}

func TestExporter_NoMatchingFiles(t *testing.T) {
	dir, cfg := writeProject(t, map[string]string{"readme.txt": "hi"})

	_, err := NewExporter(dir, cfg, nil).Export(context.Background(), ExportOptions{})

	assert.ErrorIs(t, err, ErrNoPatternMatch)
}
