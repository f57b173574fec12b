package rotation

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"
)

func newStore(t *testing.T, content string) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "whinetime_order.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return New(path, rand.New(rand.NewPCG(1, 2))), path
}

func TestStore_Load(t *testing.T) {
	s, _ := newStore(t, "U1, U2 ,U3\n2")
	order, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Order{Hosts: []string{"U1", "U2", "U3"}, Countdown: 2}, order)

	hosts, err := s.Hosts()
	require.NoError(t, err)
	assert.Equal(t, []string{"U1", "U2", "U3"}, hosts)
}

func TestStore_Load_Invalid(t *testing.T) {
	s, _ := newStore(t, "U1,U2\nfoo")
	_, err := s.Load()
	assert.Error(t, err)

	s = New(filepath.Join(t.TempDir(), "missing.txt"), nil)
	_, err = s.Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStore_Rotate(t *testing.T) {
	s, path := newStore(t, "U1,U2,U3\n3\n")
	require.NoError(t, s.Rotate())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "U2,U3,U1\n2", string(content))

	require.NoError(t, s.Rotate())
	order, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Order{Hosts: []string{"U3", "U1", "U2"}, Countdown: 1}, order)
}

func TestStore_Rotate_KeepsPermissions(t *testing.T) {
	s, path := newStore(t, "U1,U2,U3\n3\n")
	require.NoError(t, os.Chmod(path, 0o640))
	require.NoError(t, s.Rotate())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
}

func TestStore_NextHost(t *testing.T) {
	s, _ := newStore(t, "U1,U2,U3\n1")
	host, err := s.NextHost()
	require.NoError(t, err)
	assert.Equal(t, "U1", host)

	// countdown runs out: the order gets reshuffled
	require.NoError(t, s.Rotate())
	host, err = s.NextHost()
	require.NoError(t, err)
	order, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, order.Countdown)
	assert.ElementsMatch(t, []string{"U1", "U2", "U3"}, order.Hosts)
	assert.Equal(t, order.Hosts[0], host)
}

func TestStore_NextHost_Empty(t *testing.T) {
	s, _ := newStore(t, "\n0")
	_, err := s.NextHost()
	assert.ErrorIs(t, err, ErrNoHosts)
	assert.ErrorIs(t, s.Rotate(), ErrNoHosts)
}

func TestStore_Randomise(t *testing.T) {
	s, _ := newStore(t, "U1,U2,U3,U4,U5\n0")
	hosts, err := s.Randomise()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"U1", "U2", "U3", "U4", "U5"}, hosts)

	order, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, hosts, order.Hosts)
	assert.Equal(t, 5, order.Countdown)
}

func TestStore_WeeksUntil(t *testing.T) {
	s, _ := newStore(t, "U1,U2,U3\n3")

	tests := []struct {
		name    string
		host    string
		want    int
		wantErr assert.ErrorAssertionFunc
	}{
		{name: "next", host: "U1", want: 0, wantErr: assert.NoError},
		{name: "last", host: "U3", want: 2, wantErr: assert.NoError},
		{name: "unknown", host: "U4", wantErr: assert.Error},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			weeks, err := s.WeeksUntil(tt.host)
			tt.wantErr(t, err)
			assert.Equal(t, tt.want, weeks)
		})
	}
}

func TestStore_Candidates(t *testing.T) {
	s, _ := newStore(t, "U1,U2,U3\n3")
	candidates, err := s.Candidates("U1", "W23456789")
	require.NoError(t, err)
	assert.Equal(t, []string{"U2", "U3"}, candidates)

	candidates, err = s.Candidates("U1", "U2", "U3")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}
