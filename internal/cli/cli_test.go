package cli

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yolodolo42/itemdeck/internal/fixture"
	"github.com/yolodolo42/itemdeck/internal/integration"
	"github.com/yolodolo42/itemdeck/internal/testutil"
)

// isolate points the data directory at a temp dir and clears ambient env
func isolate(t *testing.T) string {
	t.Helper()
	home := testutil.TempDir(t)
	testutil.SetEnv(t, HomeEnv, home)
	for _, sel := range integration.All() {
		testutil.UnsetEnv(t, sel.EnvVar())
	}
	for _, key := range []string{"ITEMDECK_INTEGRATION", "ITEMDECK_SERVER_BASE_URL", "ITEMDECK_DISPLAY_LOCALE"} {
		testutil.UnsetEnv(t, key)
	}
	return home
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func fixtureURL(t *testing.T, doc string) string {
	t.Helper()
	set, err := fixture.Parse([]byte(doc))
	require.NoError(t, err)
	ts := httptest.NewServer(fixture.NewServer(":0", set, zerolog.Nop()).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

const cliFixtures = `
integrations:
  notion:
    token: secret
    items:
      - {type: page, name: A, id: 6f1c2a9e-0b7d, seq: 1}
      - {type: page, name: B}
      - {type: db, name: C}
`

func TestLoad(t *testing.T) {
	url := fixtureURL(t, cliFixtures)

	t.Run("grouped", func(t *testing.T) {
		isolate(t)
		testutil.SetEnv(t, "NOTION_TOKEN", "secret")

		out, err := execute(t, "", "load", "notion", "--server", url, "--locale", "en-US")
		require.NoError(t, err)
		assert.Contains(t, out, "Successfully loaded 3 items")
		assert.Contains(t, out, "Pages")
		assert.Contains(t, out, "Dbs")
		assert.Contains(t, out, "6f1c2a9e...")
	})

	t.Run("raw", func(t *testing.T) {
		isolate(t)
		testutil.SetEnv(t, "NOTION_TOKEN", "secret")

		out, err := execute(t, "", "load", "Notion", "-o", "raw", "--server", url)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "[\n  {\n"), "payload is indented with two spaces")
		assert.Contains(t, out, `    "type": "page"`)
	})

	t.Run("yaml", func(t *testing.T) {
		isolate(t)
		testutil.SetEnv(t, "NOTION_TOKEN", "secret")

		out, err := execute(t, "", "load", "--integration", "notion", "-o", "yaml", "--server", url)
		require.NoError(t, err)
		assert.Contains(t, out, "type: page")
		assert.Contains(t, out, "seq: 1")
	})

	t.Run("server from env", func(t *testing.T) {
		isolate(t)
		testutil.SetEnv(t, "NOTION_TOKEN", "secret")
		testutil.SetEnv(t, "ITEMDECK_SERVER_BASE_URL", url)

		out, err := execute(t, "", "load", "notion", "-o", "raw")
		require.NoError(t, err)
		assert.Contains(t, out, `"name": "C"`)
	})

	t.Run("rejected", func(t *testing.T) {
		isolate(t)
		testutil.SetEnv(t, "NOTION_TOKEN", "wrong")

		_, err := execute(t, "", "load", "notion", "--server", url)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrLoadFailed))
		assert.Contains(t, err.Error(), "invalid token")
	})

	t.Run("no credentials", func(t *testing.T) {
		isolate(t)

		_, err := execute(t, "", "load", "hubspot", "--server", url)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HUBSPOT_ACCESS_TOKEN")
	})

	t.Run("unknown output", func(t *testing.T) {
		isolate(t)

		_, err := execute(t, "", "load", "notion", "-o", "xml", "--server", url)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown output format")
	})

	t.Run("unknown integration", func(t *testing.T) {
		isolate(t)

		_, err := execute(t, "", "load", "salesforce", "--server", url)
		require.Error(t, err)
	})
}

func TestLoad_UsesStoredDefault(t *testing.T) {
	isolate(t)
	url := fixtureURL(t, `
integrations:
  airtable:
    items: [{type: base, name: Launch}]
`)

	_, err := execute(t, "", "auth", "connect", "airtable", "--token", "key-abc")
	require.NoError(t, err)
	_, err = execute(t, "", "auth", "default", "airtable")
	require.NoError(t, err)

	out, err := execute(t, "", "load", "-o", "raw", "--server", url)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "Launch"`)
}

func TestAuth(t *testing.T) {
	home := isolate(t)

	out, err := execute(t, "", "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No integrations connected.")

	out, err = execute(t, "", "auth", "connect", "notion", "--token", "secret_abcdef123456")
	require.NoError(t, err)
	assert.Contains(t, out, "Connected Notion")
	assert.FileExists(t, filepath.Join(home, "credentials.json"))

	out, err = execute(t, "", "auth", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* notion")
	assert.Contains(t, out, "store")

	out, err = execute(t, "", "auth", "show", "notion")
	require.NoError(t, err)
	assert.Contains(t, out, "access_token: secr…3456")
	assert.NotContains(t, out, "secret_abcdef123456")

	out, err = execute(t, "", "auth", "disconnect", "notion")
	require.NoError(t, err)
	assert.Contains(t, out, "Disconnected Notion")

	_, err = execute(t, "", "auth", "show", "notion")
	require.Error(t, err)
}

func TestAuth_ConnectPrompts(t *testing.T) {
	isolate(t)

	out, err := execute(t, "2\ntoken-from-stdin\n", "auth", "connect")
	require.NoError(t, err)
	assert.Contains(t, out, "Enter access token for Airtable")

	out, err = execute(t, "", "auth", "show", "airtable")
	require.NoError(t, err)
	assert.Contains(t, out, "from store")
}

func TestAuth_ConnectJSON(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "auth", "connect", "hubspot", "--json", `{"access_token":"pat-1234567890","portal_id":42}`)
	require.NoError(t, err)

	out, err := execute(t, "", "auth", "show", "hubspot")
	require.NoError(t, err)
	assert.Contains(t, out, "portal_id: 42")

	_, err = execute(t, "", "auth", "connect", "hubspot", "--json", `[1,2]`)
	require.Error(t, err)
}

func TestAuth_DefaultRequiresConnection(t *testing.T) {
	isolate(t)

	_, err := execute(t, "", "auth", "default", "hubspot")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")

	out, err := execute(t, "", "auth", "default")
	require.NoError(t, err)
	assert.Contains(t, out, "Default integration: notion")
}

func TestIntegrations(t *testing.T) {
	isolate(t)
	testutil.SetEnv(t, "HUBSPOT_ACCESS_TOKEN", "pat")

	out, err := execute(t, "", "integrations")
	require.NoError(t, err)
	assert.Contains(t, out, "POST /integrations/notion/load")
	assert.Contains(t, out, "POST /integrations/hubspot/get_hubspot_items")
	assert.Contains(t, out, "notion *")
	assert.Contains(t, out, "env")
}

func TestRoot_Config(t *testing.T) {
	t.Run("invalid server", func(t *testing.T) {
		isolate(t)
		_, err := execute(t, "", "integrations", "--server", "ftp://example.com")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "server.base_url")
	})

	t.Run("explicit config file", func(t *testing.T) {
		home := isolate(t)
		path := testutil.WriteFile(t, home, "custom.yaml", "server:\n  base_url: https://api.example.com\nintegration: hubspot\n")

		out, err := execute(t, "", "integrations", "--config", path)
		require.NoError(t, err)
		assert.Contains(t, out, "https://api.example.com")
		assert.Contains(t, out, "hubspot *")
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		home := isolate(t)
		_, err := execute(t, "", "integrations", "--config", filepath.Join(home, "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("deck needs a terminal", func(t *testing.T) {
		isolate(t)
		out, err := execute(t, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "interactive terminal")
		assert.Contains(t, out, "NOTION_TOKEN")
	})
}
