package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalDoc = `
name: test-scenario
description: minimal document
scenarios:
  - name: group-one
    session_id: sess-1
    auth_token_id: token-1
    events:
      - action: view_books
        timestamp_offset_minutes: 0
        client_ip: "192.0.2.1"
        path: /store/s1/books
        user_id: 10
abuse_assertions:
  - name: something_happened
    query: MATCH (e:Event) RETURN e
    expected_result_count: ">= 1"
`

func writeScenario(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "test-scenario", minimalDoc)

	t.Run("parses a valid document", func(t *testing.T) {
		doc, err := Load(dir, "test-scenario")
		require.NoError(t, err)
		assert.Equal(t, "test-scenario", doc.Name)
		require.Len(t, doc.Scenarios, 1)
		assert.Equal(t, "sess-1", doc.Scenarios[0].SessionID)
		require.Len(t, doc.AbuseAssertions, 1)
		assert.Equal(t, ">= 1", doc.AbuseAssertions[0].ExpectedResultCount)
	})

	t.Run("unknown name lists alternatives", func(t *testing.T) {
		_, err := Load(dir, "missing")
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "missing", notFound.Name)
		assert.Equal(t, []string{"test-scenario"}, notFound.Available)
		assert.Contains(t, notFound.Error(), "test-scenario")
	})

	t.Run("invalid yaml is rejected", func(t *testing.T) {
		writeScenario(t, dir, "broken", "name: [unclosed")
		_, err := Load(dir, "broken")
		assert.Error(t, err)
	})
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "zeta", minimalDoc)
	writeScenario(t, dir, "alpha", minimalDoc)
	writeScenario(t, dir, "blueprint", minimalDoc)

	names := List(dir)
	assert.Equal(t, []string{"alpha", "zeta"}, names, "sorted, blueprint excluded")
}

func TestDocumentValidate(t *testing.T) {
	base := func() Document {
		return Document{
			Name: "doc",
			Scenarios: []Group{{
				Name: "g",
				Events: []EventTemplate{{
					Action:   "view_books",
					Path:     "/p",
					ClientIP: "192.0.2.1",
				}},
			}},
			AbuseAssertions: []Assertion{{Name: "a", Query: "RETURN 1"}},
		}
	}

	t.Run("valid", func(t *testing.T) {
		doc := base()
		assert.NoError(t, doc.Validate())
	})

	cases := []struct {
		name   string
		mutate func(*Document)
		want   string
	}{
		{"missing name", func(d *Document) { d.Name = "" }, "name"},
		{"missing action", func(d *Document) { d.Scenarios[0].Events[0].Action = "" }, "action"},
		{"missing path", func(d *Document) { d.Scenarios[0].Events[0].Path = "" }, "path"},
		{"missing client_ip", func(d *Document) { d.Scenarios[0].Events[0].ClientIP = "" }, "client_ip"},
		{"unnamed assertion", func(d *Document) { d.AbuseAssertions[0].Name = "" }, "abuse_assertions"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := base()
			tc.mutate(&doc)
			err := doc.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestShippedScenarioDocuments(t *testing.T) {
	dir := filepath.Join("..", "..", "scenarios")
	for _, name := range []string{"session-sharing", "credential-stuffing"} {
		t.Run(name, func(t *testing.T) {
			doc, err := Load(dir, name)
			require.NoError(t, err)
			assert.NotEmpty(t, doc.AbuseAssertions)
			for _, a := range doc.AbuseAssertions {
				assert.NotEmpty(t, a.Query, "assertion %s", a.Name)
				assert.NotNil(t, a.ExpectedResultCount, "assertion %s", a.Name)
			}
		})
	}
}
