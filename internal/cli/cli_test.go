package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"docdash/internal/client"
	"docdash/internal/dashboard"
	"docdash/internal/dashboard/mocks"
	"docdash/internal/logging"
	"docdash/internal/model"
	"docdash/internal/session"
)

type harness struct {
	api   *mocks.MockAPI
	store *session.MemoryStore
	out   *bytes.Buffer
	in    string
}

func newHarness() *harness {
	return &harness{api: new(mocks.MockAPI), store: session.NewMemoryStore(), out: new(bytes.Buffer)}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	cmd := NewRootCmd(Deps{
		Out:          h.out,
		In:           strings.NewReader(h.in),
		Logger:       logging.Discard(),
		ReadPassword: func() ([]byte, error) { return []byte("pw"), nil },
		NewAPI:       func(Config) (API, error) { return h.api, nil },
		OpenStore: func(string) (session.Store, io.Closer, error) {
			return h.store, nil, nil
		},
	})
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	return cmd.Execute()
}

func (h *harness) loggedIn(t *testing.T, u model.User) {
	t.Helper()
	require.NoError(t, session.Save(h.store, "tok", u))
}

var ann = model.User{ID: 7, Email: "ann@example.com", FullName: "Ann Lee", Role: model.RoleUser}

func TestLogin(t *testing.T) {
	h := newHarness()
	h.in = "ann@example.com\n"
	h.api.On("Login", mock.Anything, "ann@example.com", "pw").
		Return(&client.AuthResponse{Token: "tok", User: ann}, nil)

	require.NoError(t, h.run("login"))
	assert.Contains(t, h.out.String(), "Logged in as Ann Lee (user)")

	sess, err := session.Bootstrap(h.store)
	require.NoError(t, err)
	assert.Equal(t, "tok", sess.Token)
}

func TestLogin_Rejected(t *testing.T) {
	h := newHarness()
	h.api.On("Login", mock.Anything, "ann@example.com", "pw").
		Return(nil, &client.APIError{Status: 401, Message: "Invalid credentials"})

	err := h.run("login", "-e", "ann@example.com")
	require.Error(t, err)
	assert.EqualError(t, friendly(err), "Invalid credentials")
}

func TestRegister(t *testing.T) {
	h := newHarness()
	h.api.On("Register", mock.Anything, "new@example.com", "pw", "New User").
		Return(&client.AuthResponse{Token: "tok", User: model.User{ID: 2, FullName: "New User", Role: model.RoleUser}}, nil)

	require.NoError(t, h.run("register", "-e", "new@example.com", "-n", "New User"))
	assert.Contains(t, h.out.String(), "Welcome, New User")
}

func TestWhoamiAndLogout(t *testing.T) {
	h := newHarness()

	err := h.run("whoami")
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Contains(t, friendly(err).Error(), "not logged in")

	h.loggedIn(t, ann)
	require.NoError(t, h.run("whoami"))
	assert.Equal(t, "Ann Lee <ann@example.com> user\n", h.out.String())

	require.NoError(t, h.run("logout"))
	assert.ErrorIs(t, h.run("whoami"), session.ErrNoSession)
}

func TestWhoami_VerifyExpired(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, ann)
	h.api.On("Verify", mock.Anything, "tok").Return(nil, &client.APIError{Status: 401, Message: "Token expired"})

	err := h.run("whoami", "--verify")
	assert.ErrorIs(t, err, dashboard.ErrSessionExpired)
	assert.Contains(t, friendly(err).Error(), "session expired")
}

func TestLs(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, ann)
	h.api.On("ListDocuments", mock.Anything, "tok", (*int64)(nil)).Return([]model.Document{
		{ID: 1, FileName: "a.pdf", FileSize: 2048, UploadedAt: time.Now()},
	}, nil).Once()

	require.NoError(t, h.run("ls"))
	out := h.out.String()
	assert.Contains(t, out, "a.pdf")
	assert.Contains(t, out, "2.0 KB")
	assert.NotContains(t, out, "OWNER")

	h.api.On("ListDocuments", mock.Anything, "tok", (*int64)(nil)).Return([]model.Document{}, nil).Once()
	require.NoError(t, h.run("ls"))
	assert.Equal(t, "No documents\n", h.out.String())
}

func TestLs_AdminOwnerColumn(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, model.User{ID: 1, FullName: "Root", Role: model.RoleAdmin})
	owner := "Ann Lee"
	h.api.On("ListDocuments", mock.Anything, "tok", (*int64)(nil)).Return([]model.Document{
		{ID: 1, FileName: "a.pdf", FileSize: 10, UserName: &owner},
	}, nil)

	require.NoError(t, h.run("ls"))
	assert.Contains(t, h.out.String(), "OWNER")
	assert.Contains(t, h.out.String(), "Ann Lee")
}

func TestUpload(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, ann)

	path := filepath.Join(t.TempDir(), "notes.json")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o600))

	h.api.On("UploadDocument", mock.Anything, "tok", mock.MatchedBy(func(r client.UploadRequest) bool {
		return r.FileName == "notes.json" && r.FileData == "aGVsbG8=" && r.Description == "mine" &&
			r.FileType == "application/json"
	})).Return(&model.Document{ID: 4, FileName: "notes.json", FileSize: 5}, nil)

	require.NoError(t, h.run("upload", path, "-d", "mine"))
	assert.Equal(t, "Uploaded #4 notes.json (5 B)\n", h.out.String())

	assert.Error(t, h.run("upload", filepath.Join(t.TempDir(), "missing")))
}

func TestRm(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, ann)
	h.api.On("DeleteDocument", mock.Anything, "tok", int64(3)).Return(nil)

	require.NoError(t, h.run("rm", "3"))
	assert.Equal(t, "Deleted #3\n", h.out.String())

	assert.EqualError(t, h.run("rm", "x"), `invalid document id "x"`)
}

func TestGet(t *testing.T) {
	h := newHarness()
	h.loggedIn(t, ann)
	h.api.On("DownloadDocument", mock.Anything, "tok", int64(2)).
		Return(io.NopCloser(strings.NewReader("content")), "report.pdf", nil)

	out := filepath.Join(t.TempDir(), "copy.pdf")
	require.NoError(t, h.run("get", "2", "-o", out))

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "content", string(b))

	assert.Error(t, h.run("get", "2", "-o", out), "existing files are not overwritten")
}

func TestSettings(t *testing.T) {
	h := newHarness()

	require.NoError(t, h.run("settings"))
	assert.Contains(t, h.out.String(), "sms_notifications")

	require.NoError(t, h.run("settings", "toggle", "sms_notifications"))
	lines := strings.Split(strings.TrimSpace(h.out.String()), "\n")
	require.Len(t, lines, len(model.SettingNames))
	assert.Equal(t, []string{"email_notifications", "on"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"sms_notifications", "on"}, strings.Fields(lines[1]))

	err := h.run("settings", "toggle", "dark_mode")
	assert.ErrorContains(t, err, "unknown setting")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "dashctl.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: https://docs.example.com\nstore_path: /tmp/x.db\ntimeout: 5s\n"), 0o600))
	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://docs.example.com", cfg.APIURL)
	assert.Equal(t, "/tmp/x.db", cfg.StorePath)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	require.NoError(t, os.WriteFile(path, []byte("api_url: [\n"), 0o600))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}
