package main

import (
	"errors"
	"io"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlan(t *testing.T) {
	cases := map[string]struct {
		args []string
		want plan
	}{
		"default":    {nil, plan{verb: verbUp}},
		"up all":     {[]string{"up"}, plan{verb: verbUp}},
		"up steps":   {[]string{"up", "2"}, plan{verb: verbUp, n: 2}},
		"down steps": {[]string{"down", "1"}, plan{verb: verbDown, n: 1}},
		"status":     {[]string{"status"}, plan{verb: verbStatus}},
		"force":      {[]string{"force", "1"}, plan{verb: verbForce, n: 1}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := parsePlan(tc.args)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParsePlan_Rejects(t *testing.T) {
	for _, args := range [][]string{
		{"sideways"},
		{"up", "-1"},
		{"up", "x"},
		{"up", "1", "2"},
		{"status", "now"},
		{"force"},
	} {
		_, err := parsePlan(args)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

// fakeMigrator records calls and reports a fixed version.
type fakeMigrator struct {
	calls   []string
	steps   int
	forced  int
	err     error
	version uint
	dirty   bool
	verErr  error
}

func (f *fakeMigrator) Up() error { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeMigrator) Down() error { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeMigrator) Steps(n int) error {
	f.calls = append(f.calls, "steps")
	f.steps = n
	return f.err
}
func (f *fakeMigrator) Force(v int) error {
	f.calls = append(f.calls, "force")
	f.forced = v
	return f.err
}
func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, f.dirty, f.verErr }

func TestApply(t *testing.T) {
	t.Run("up all", func(t *testing.T) {
		m := &fakeMigrator{version: 1}
		msg, err := apply(m, plan{verb: verbUp})
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, m.calls)
		assert.Equal(t, "up applied, now at version 1", msg)
	})
	t.Run("down steps", func(t *testing.T) {
		m := &fakeMigrator{version: 0}
		_, err := apply(m, plan{verb: verbDown, n: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"steps"}, m.calls)
		assert.Equal(t, -1, m.steps)
	})
	t.Run("no change", func(t *testing.T) {
		m := &fakeMigrator{err: migrate.ErrNoChange, version: 1}
		msg, err := apply(m, plan{verb: verbUp})
		require.NoError(t, err)
		assert.Equal(t, "already at version 1", msg)
	})
	t.Run("failure", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := apply(&fakeMigrator{err: boom}, plan{verb: verbUp})
		assert.ErrorIs(t, err, boom)
	})
	t.Run("status never migrates", func(t *testing.T) {
		m := &fakeMigrator{version: 1, dirty: true}
		msg, err := apply(m, plan{verb: verbStatus})
		require.NoError(t, err)
		assert.Empty(t, m.calls)
		assert.Equal(t, "version 1 (dirty, run force after fixing)", msg)
	})
	t.Run("empty database", func(t *testing.T) {
		msg, err := apply(&fakeMigrator{verErr: migrate.ErrNilVersion}, plan{verb: verbStatus})
		require.NoError(t, err)
		assert.Equal(t, "no migrations applied", msg)
	})
	t.Run("force", func(t *testing.T) {
		m := &fakeMigrator{version: 1}
		_, err := apply(m, plan{verb: verbForce, n: 1})
		require.NoError(t, err)
		assert.Equal(t, 1, m.forced)
	})
}

func TestRun_UsageErrorsBeforeTouchingTheDatabase(t *testing.T) {
	err := run([]string{"-config", "does-not-exist.yaml", "sideways"}, io.Discard)
	assert.ErrorIs(t, err, errUsage)

	err = run([]string{"-config", "does-not-exist.yaml", "status"}, io.Discard)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), "reading config")
}
