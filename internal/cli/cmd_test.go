package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/handbook/internal/catalog"
	"github.com/alexanderramin/handbook/internal/cli/formatter"
	"github.com/alexanderramin/handbook/internal/config"
	"github.com/alexanderramin/handbook/internal/db"
	"github.com/alexanderramin/handbook/internal/domain"
	"github.com/alexanderramin/handbook/internal/importer"
	"github.com/alexanderramin/handbook/internal/repository"
	"github.com/alexanderramin/handbook/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testApp wires an App over a memory-backed store seeded with the sample
// catalog.
func testApp(t *testing.T) (*App, domain.Aggregate) {
	t.Helper()
	blobs := repository.NewMemoryBlobStore()
	sample := testutil.SampleAggregate()
	data, err := importer.EncodeAggregate(sample)
	require.NoError(t, err)
	require.NoError(t, blobs.Put(context.Background(), catalog.DefaultStorageKey, data))
	return appOver(t, blobs), sample
}

func appOver(t *testing.T, blobs repository.BlobStore) *App {
	t.Helper()
	clock := testutil.NewClock(testutil.Epoch.Add(time.Hour), time.Second)
	store := catalog.New(blobs,
		catalog.WithClock(clock.Now),
		catalog.WithIDGenerator(testutil.SequentialIDs("id")),
	)
	require.NoError(t, store.Initialize(context.Background()))
	return &App{Catalog: store, Now: clock.Now}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestResolveID(t *testing.T) {
	ids := []string{"0190-aaaa-1111", "0190-aaaa-2222", "0190-bbbb-2223"}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr string
	}{
		{name: "exact", input: "0190-aaaa-1111", want: "0190-aaaa-1111"},
		{name: "unique prefix", input: "0190-b", want: "0190-bbbb-2223"},
		{name: "unique suffix", input: "1111", want: "0190-aaaa-1111"},
		{name: "ambiguous prefix", input: "0190-a", wantErr: "ambiguous"},
		{name: "suffix after no prefix match", input: "222", want: "0190-aaaa-2222"},
		{name: "missing", input: "zzzz", wantErr: "not found"},
		{name: "empty", input: "  ", wantErr: "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveID("department", tt.input, ids)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeptList(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "dept", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "민원실")
	assert.Contains(t, out, "재무과")
	assert.Less(t, bytes.Index([]byte(out), []byte("민원실")), bytes.Index([]byte(out), []byte("재무과")))
}

func TestDeptAddUpdate(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "dept", "add", "--name", "  감사실 ", "--manager", "김감사")
	require.NoError(t, err)
	assert.Contains(t, out, "Created department 감사실 [id-1]")

	d, err := app.Catalog.DepartmentByID("id-1")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 2, d.Order, "appended after the existing departments")
	assert.Equal(t, "김감사", d.Manager)

	out, err = executeCmd(t, app, "dept", "update", "id-1", "--description", "내부 감사")
	require.NoError(t, err)
	assert.Contains(t, out, "Updated department 감사실")

	d, err = app.Catalog.DepartmentByID("id-1")
	require.NoError(t, err)
	assert.Equal(t, "내부 감사", d.Description)
	assert.Equal(t, "감사실", d.Name, "unchanged flags leave fields alone")
}

func TestDeptAdd_RequiresName(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "dept", "add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name")
}

func TestDeptUpdate_ValidationError(t *testing.T) {
	app, sample := testApp(t)
	_, err := executeCmd(t, app, "dept", "update", sample.Departments[0].ID, "--name", " ")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDeptRemove_RequiresConfirmation(t *testing.T) {
	app, sample := testApp(t)
	civil := sample.Departments[0]

	_, err := executeCmd(t, app, "dept", "remove", civil.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rerun with --yes")

	d, err := app.Catalog.DepartmentByID(civil.ID)
	require.NoError(t, err)
	assert.NotNil(t, d, "nothing deleted without confirmation")
}

func TestDeptRemove_Cascade(t *testing.T) {
	app, sample := testApp(t)
	civil := sample.Departments[0]

	out, err := executeCmd(t, app, "dept", "remove", formatter.ShortID(civil.ID), "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 department, 2 categories, 2 processes")

	st, err := app.Catalog.Stats()
	require.NoError(t, err)
	assert.Equal(t, domain.Stats{Departments: 1, Categories: 1, Processes: 1}, st)
}

func TestDeptRemove_InteractiveConfirm(t *testing.T) {
	app, sample := testApp(t)
	civil := sample.Departments[0]

	var asked string
	app.Interactive = true
	app.Confirm = func(title, _ string) (bool, error) {
		asked = title
		return false, nil
	}

	out, err := executeCmd(t, app, "dept", "remove", civil.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")
	assert.Equal(t, "Delete department 민원실?", asked)

	app.Confirm = func(string, string) (bool, error) { return true, nil }
	out, err = executeCmd(t, app, "dept", "remove", civil.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 department")
}

func TestCategoryCommands(t *testing.T) {
	app, sample := testApp(t)
	finance := sample.Departments[1]

	out, err := executeCmd(t, app, "category", "list", finance.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "예산")
	assert.Contains(t, out, "지방재정법")
	assert.NotContains(t, out, "접수")

	out, err = executeCmd(t, app, "category", "add", "--department", finance.ID, "--name", "회계", "--legal", "회계법")
	require.NoError(t, err)
	assert.Contains(t, out, "Created category 회계 [id-1]")

	cats, err := app.Catalog.CategoriesByDepartment(finance.ID)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "회계", cats[1].Name)

	_, err = executeCmd(t, app, "category", "add", "--department", "nope", "--name", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	out, err = executeCmd(t, app, "category", "remove", "id-1", "-y")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 category")
}

func TestCategoryUpdate_MovesDepartment(t *testing.T) {
	app, sample := testApp(t)
	complaints := sample.Categories[1]
	finance := sample.Departments[1]

	_, err := executeCmd(t, app, "category", "update", complaints.ID, "--department", finance.ID)
	require.NoError(t, err)

	c, err := app.Catalog.CategoryByID(complaints.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.ID, c.DepartmentID)
}

func TestProcessAddShowUpdate(t *testing.T) {
	app, sample := testApp(t)
	budget := sample.Categories[2]

	out, err := executeCmd(t, app, "process", "add",
		"--category", budget.ID,
		"--title", "결산",
		"--step", "자료 수집::각 부서 자료 취합",
		"--step", "보고서 작성",
		"--tag", "결산", "--tag", "회계",
		"--legal", "지방회계법",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Created process 결산 [id-1]")

	p, err := app.Catalog.ProcessByID("id-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, domain.Step{StepNumber: 1, Title: "자료 수집", Description: "각 부서 자료 취합"}, p.Steps[0])
	assert.Equal(t, 2, p.Steps[1].StepNumber)
	assert.Equal(t, []string{"결산", "회계"}, p.Tags)

	out, err = executeCmd(t, app, "process", "show", "id-1")
	require.NoError(t, err)
	assert.Contains(t, out, "재무과 > 예산")
	assert.Contains(t, out, "자료 수집")
	assert.Contains(t, out, "#회계")

	_, err = executeCmd(t, app, "process", "update", "id-1", "--clear", "tag", "--output", "결산서")
	require.NoError(t, err)
	p, err = app.Catalog.ProcessByID("id-1")
	require.NoError(t, err)
	assert.Empty(t, p.Tags)
	assert.NotNil(t, p.Tags)
	assert.Equal(t, []string{"결산서"}, p.Outputs)
	assert.Equal(t, []string{"지방회계법"}, p.LegalBasis, "lists not named are kept")

	_, err = executeCmd(t, app, "process", "update", "id-1", "--clear", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown list")
}

func TestProcessList(t *testing.T) {
	app, sample := testApp(t)
	out, err := executeCmd(t, app, "process", "list", sample.Categories[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "민원신청")
	assert.Contains(t, out, "처리 현황 조회")

	out, err = executeCmd(t, app, "process", "list", sample.Categories[1].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "No processes.")
}

func TestStepList(t *testing.T) {
	var steps stepList
	require.NoError(t, steps.Set(" 접수 :: 서류 확인 "))
	require.NoError(t, steps.Set("검토"))
	assert.Equal(t, []domain.Step{
		{StepNumber: 1, Title: "접수", Description: "서류 확인"},
		{StepNumber: 2, Title: "검토"},
	}, steps.Steps())
	assert.Equal(t, "[접수, 검토]", steps.String())

	err := steps.Set("::설명만")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 3")
	assert.Len(t, steps, 2)

	var none stepList
	assert.NotNil(t, none.Steps())
}

func TestTreeAndStats(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "tree")
	require.NoError(t, err)
	assert.Contains(t, out, "민원실")
	assert.Contains(t, out, "민원신청")

	out, err = executeCmd(t, app, "tree", "--categories")
	require.NoError(t, err)
	assert.NotContains(t, out, "민원신청")

	out, err = executeCmd(t, app, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "2 departments · 3 categories · 3 processes")
}

func TestSearch(t *testing.T) {
	app, _ := testApp(t)

	out, err := executeCmd(t, app, "search", "민원", "--json")
	require.NoError(t, err)
	var results []domain.SearchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.Equal(t, "민원신청", results[0].Title)
	assert.Equal(t, "민원실 > 접수 > 민원신청", results[0].Path)

	out, err = executeCmd(t, app, "search", "민")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")
}

func TestExportImport_RoundTrip(t *testing.T) {
	app, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "handbook.json")

	out, err := executeCmd(t, app, "export", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 2 departments")

	target := appOver(t, repository.NewMemoryBlobStore())
	_, err = executeCmd(t, target, "import", path)
	require.Error(t, err, "import replaces everything and needs --yes")

	out, err = executeCmd(t, target, "import", path, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 departments · 3 categories · 3 processes")

	want, err := app.Catalog.Snapshot()
	require.NoError(t, err)
	got, err := target.Catalog.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, want.Stats(), got.Stats())
	assert.Equal(t, want.Departments[0].ID, got.Departments[0].ID)
}

func TestExport_Stdout(t *testing.T) {
	app, _ := testApp(t)
	out, err := executeCmd(t, app, "export")
	require.NoError(t, err)

	var doc domain.Export
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, domain.SchemaVersion, doc.SchemaVersion)
	assert.Len(t, doc.Processes, 3)
	assert.False(t, doc.ExportedAt.IsZero())
}

func TestImport_InvalidDocument(t *testing.T) {
	app, _ := testApp(t)
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"departments":[],"categories":[{"id":"c1","name":"x","departmentId":"ghost"}],"processes":[]}`), 0o644))

	_, err := executeCmd(t, app, "import", path, "--yes")
	assert.ErrorIs(t, err, domain.ErrValidation)

	st, err := app.Catalog.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.Departments, "a rejected import leaves the catalog untouched")
}

func TestHistory_Commands(t *testing.T) {
	app := appOver(t, repository.NewSQLBlobStore(testutil.NewTestDB(t), db.SQLite, 10))

	out, err := executeCmd(t, app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No stored revisions.")

	_, err = executeCmd(t, app, "dept", "add", "--name", "감사실")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "dept", "add", "--name", "기획실")
	require.NoError(t, err)

	out, err = executeCmd(t, app, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "REVISION")

	out, err = executeCmd(t, app, "history", "restore", "1", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Restored revision 1")

	depts, err := app.Catalog.Departments()
	require.NoError(t, err)
	names := make([]string, len(depts))
	for i, d := range depts {
		names[i] = d.Name
	}
	assert.Contains(t, names, "감사실")
	assert.NotContains(t, names, "기획실", "revision 1 predates the second department")

	_, err = executeCmd(t, app, "history", "restore", "abc", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid revision")
}

func TestHistory_UnsupportedDriver(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "history")
	assert.ErrorIs(t, err, catalog.ErrHistoryUnsupported)
}

func TestBrowse_RequiresTerminal(t *testing.T) {
	app, _ := testApp(t)
	_, err := executeCmd(t, app, "browse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestConfigCommands(t *testing.T) {
	app, _ := testApp(t)
	app.Config = config.DefaultConfig()
	app.Config.Storage.Driver = config.DriverPostgres
	app.Config.Storage.PostgresDSN = "postgres://admin:secret@db/handbook"
	app.ConfigPath = filepath.Join(t.TempDir(), "conf", "handbook.yaml")

	out, err := executeCmd(t, app, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "driver: postgres")
	assert.NotContains(t, out, "secret")

	out, err = executeCmd(t, app, "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote config to "+app.ConfigPath)

	loaded, err := config.Load(app.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, config.DriverPostgres, loaded.Storage.Driver)

	_, err = executeCmd(t, app, "config", "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, err = executeCmd(t, app, "config", "init", "--force")
	require.NoError(t, err)
}
