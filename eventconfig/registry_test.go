package eventconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"example.com/backstage/analytics/domain"
)

const tennisClubYAML = `
id: TENNIS_CLUB_MEMBERSHIP
declaration:
  - id: applicant
    fields:
      - id: applicant.firstname
        type: TEXT
        analytics: false
      - id: applicant.dob
        type: DATE
        analytics: true
actions:
  - type: VALIDATE
    annotation:
      - id: review.comment
        analytics: true
      - id: review.signature
        analytics: false
derived:
  - id: applicant.age.days
    kind: age_in_days
    source: applicant.dob
    analytics: true
`

func TestRegistry_FlattensEligibleFields(t *testing.T) {
	reg, err := NewRegistry(Defaults()...)
	require.NoError(t, err)

	cfg, ok := reg.Lookup(domain.EventTypeBirth)
	require.True(t, ok)
	require.True(t, cfg.IsDeclarationField("child.dob"))
	require.True(t, cfg.IsDeclarationField("child.age.days"), "derived fields are flattened in")
	require.False(t, cfg.IsDeclarationField("child.firstname"))
	require.False(t, cfg.IsDeclarationField("unknown.field"))

	fields, ok := cfg.AnnotationFields(domain.ActionCorrect)
	require.True(t, ok)
	require.Contains(t, fields, "reason")
	require.NotContains(t, fields, "correction.request.evidence")

	_, ok = cfg.AnnotationFields(domain.ActionValidate)
	require.False(t, ok)

	_, ok = reg.Lookup("MARRIAGE")
	require.False(t, ok)
	require.Equal(t, []domain.EventType{domain.EventTypeBirth, domain.EventTypeDeath}, reg.EventTypes())
}

func TestRegistry_RejectsInvalidConfig(t *testing.T) {
	_, err := NewRegistry(EventConfig{})
	require.Error(t, err)

	_, err = NewRegistry(EventConfig{
		ID:      "X",
		Derived: []DerivedField{{ID: "a", Source: "b", Kind: "median"}},
	})
	require.Error(t, err)
}

func TestLoadDir_ReadsYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tennis.yaml"), []byte(tennisClubYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o644))

	reg, err := Load(dir)
	require.NoError(t, err)

	cfg, ok := reg.Lookup("TENNIS_CLUB_MEMBERSHIP")
	require.True(t, ok)
	require.True(t, cfg.IsDeclarationField("applicant.dob"))
	require.True(t, cfg.IsDeclarationField("applicant.age.days"))
	require.False(t, cfg.IsDeclarationField("applicant.firstname"))

	fields, ok := cfg.AnnotationFields(domain.ActionValidate)
	require.True(t, ok)
	require.Contains(t, fields, "review.comment")
	require.NotContains(t, fields, "review.signature")

	_, ok = reg.Lookup(domain.EventTypeBirth)
	require.False(t, ok, "defaults are not mixed into a configured directory")
}

func TestLoad_DefaultsWithoutDirectory(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	_, ok := reg.Lookup(domain.EventTypeDeath)
	require.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
